package bookings

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed out of s.
// CONFIRMED is terminal for payment purposes but can still be cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// CanConfirm checks if a booking with this status can be confirmed.
// Only the payment orchestrator confirms, and only from PENDING.
func (s Status) CanConfirm() bool {
	return s == StatusPending
}

// CanCancel checks if a booking with this status can be cancelled.
// Users may cancel a paid booking; the refund is recorded on the payment.
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanExpire checks if a booking with this status can be expired.
// Only the sweeper expires, and only from PENDING.
func (s Status) CanExpire() bool {
	return s == StatusPending
}

// eligibleFrom lists the statuses a transition to target may start from.
func eligibleFrom(target Status) []Status {
	switch target {
	case StatusConfirmed, StatusExpired:
		return []Status{StatusPending}
	case StatusCancelled:
		return []Status{StatusPending, StatusConfirmed}
	}
	return nil
}
