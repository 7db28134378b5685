package payments

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GatewayClient abstracts the external payment provider. The service only
// needs an intent per payment; completion and failure arrive via webhook.
type GatewayClient interface {
	CreateIntent(ctx context.Context, transactionID string, amount float64, currency string, method Method) (clientSecret string, err error)
}

// mockGateway stands in for a real provider integration. It accepts every
// intent and returns a fake client secret; webhooks are driven by tests or
// manual calls.
type mockGateway struct{}

// NewMockGateway returns a gateway that always succeeds.
func NewMockGateway() GatewayClient {
	return &mockGateway{}
}

func (g *mockGateway) CreateIntent(ctx context.Context, transactionID string, amount float64, currency string, method Method) (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to create intent: %w", err)
	}
	return fmt.Sprintf("%s_secret_%s", strings.ToLower(string(method)), hex.EncodeToString(buf)), nil
}
