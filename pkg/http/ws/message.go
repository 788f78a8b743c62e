package ws

import "encoding/json"

// MessageType constants for the spectator stream protocol.
const (
	// Client -> Server
	TypeRequestSnapshot = "request_snapshot"
	TypePing            = "ping"

	// Server -> Client
	TypeSnapshot = "snapshot"
	TypeNotice   = "notice"
	TypeError    = "error"
	TypePong     = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NoticePayload carries non-blocking informational notices, e.g. the
// fallback-bank warning after a failed generation.
type NoticePayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorPayload reports a protocol-level problem on the stream.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
