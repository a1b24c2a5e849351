package entity

import "time"

// Notification delivery statuses
const (
	NotificationPending = "PENDING"
	NotificationSent    = "SENT"
	NotificationFailed  = "FAILED"
)

// Notification is a queued notice for later delivery. Delivery itself goes
// through an external sender; this records what should be sent and to whom.
type Notification struct {
	ID           int64      `json:"id"`
	RequestID    string     `json:"request_id"`
	TenantID     string     `json:"tenant_id"`
	Recipient    string     `json:"recipient"`
	Template     string     `json:"template"`
	Payload      string     `json:"payload"` // JSON-encoded template parameters
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
