package response

// Envelope is the uniform JSON body every endpoint returns. Handlers never
// shape their own top-level JSON: booking payloads, seat maps and error
// details all slot into Data/Errors so clients parse one structure.
type Envelope struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Errors     interface{} `json:"errors,omitempty"`
}
