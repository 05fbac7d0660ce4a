package audit

import (
	"context"
	"time"
)

// Audit event actions.
const (
	ActionDecisionRecorded = "consent_decision_recorded"
	ActionConsentCleared   = "consent_cleared"
)

// Event is emitted from domain logic to capture consent lifecycle actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	ClientID   string    `json:"client_id"`
	Action     string    `json:"action"`
	Decision   string    `json:"decision,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

// Sink accepts audit events for delivery. Implementations must tolerate
// concurrent appends.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Store is a sink that also supports reading events back, used by tests and
// the in-memory deployment mode.
type Store interface {
	Sink
	ListByClient(ctx context.Context, clientID string) ([]Event, error)
}
