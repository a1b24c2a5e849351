package entity

import "time"

// WorkflowTransition is one row of the persisted transition log: every
// processed event is recorded, including rejected ones, so reporting can
// break activity down by outcome.
type WorkflowTransition struct {
	ID             int64      `json:"id"`
	RequestID      string     `json:"request_id"`
	TenantID       string     `json:"tenant_id"`
	FromStatus     string     `json:"from_status"`
	ToStatus       string     `json:"to_status"`
	EventType      string     `json:"event_type"`
	ActorID        string     `json:"actor_id"`
	Success        bool       `json:"success"`
	Error          string     `json:"error,omitempty"`
	RuleNames      string     `json:"rule_names,omitempty"` // JSON-encoded list of triggered rules
	ActionCount    int        `json:"action_count"`
	DispatchedAt   *time.Time `json:"dispatched_at,omitempty"`
	DispatchError  string     `json:"dispatch_error,omitempty"`
	Timestamp      time.Time  `json:"timestamp"`
}
