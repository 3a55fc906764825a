package domain

import "time"

// DetectionEvent is a normalized log notification from a logs subscription.
// Events for failed transactions are dropped before this type is constructed.
type DetectionEvent struct {
	Signature  string    // transaction signature (base58)
	Slot       int64     // Solana slot number
	Logs       []string  // program log lines
	Endpoint   string    // websocket endpoint that delivered the event
	ReceivedAt time.Time // local receive timestamp
}
