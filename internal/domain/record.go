package domain

import "time"

// ReconciliationRecord is the authoritative state of one order or installation.
type ReconciliationRecord struct {
	ResourceID   string    `json:"resource_id"`
	CurrentState State     `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Notification is a provider event reporting a new state for a resource.
type Notification struct {
	Provider      string    `json:"provider"`
	ResourceID    string    `json:"resource_id"`
	ReportedState State     `json:"reported_state"`
	ReceivedAt    time.Time `json:"received_at"`
	RequestID     string    `json:"-"`
	RawPayload    []byte    `json:"-"`
}

// ApplyResult is the outcome of reconciling one notification.
type ApplyResult string

const (
	ResultApplied                  ApplyResult = "applied"
	ResultSkippedDuplicate         ApplyResult = "skipped_duplicate"
	ResultSkippedInvalidTransition ApplyResult = "skipped_invalid_transition"
	ResultNotFound                 ApplyResult = "not_found"
	// ResultError is only written to the audit log when the store failed.
	ResultError ApplyResult = "error"
)

// Acknowledge reports whether the provider should be told the delivery
// succeeded so it stops redelivering.
func (r ApplyResult) Acknowledge() bool {
	switch r {
	case ResultApplied, ResultSkippedDuplicate, ResultSkippedInvalidTransition:
		return true
	default:
		return false
	}
}

// NotificationLogEntry is the audit row kept for every processed notification.
type NotificationLogEntry struct {
	ID            string      `json:"id"`
	Provider      string      `json:"provider"`
	ResourceID    string      `json:"resource_id"`
	ReportedState State       `json:"reported_state"`
	Result        ApplyResult `json:"result"`
	RequestID     string      `json:"request_id,omitempty"`
	RawPayload    []byte      `json:"-"`
	ReceivedAt    time.Time   `json:"received_at"`
}
