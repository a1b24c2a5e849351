package workflow

// ActionType identifies a side effect requested by the rule engine
type ActionType string

const (
	ActionAutoApprove        ActionType = "AUTO_APPROVE"
	ActionAutoAssign         ActionType = "AUTO_ASSIGN"
	ActionPriorityEscalation ActionType = "PRIORITY_ESCALATION"
	ActionNotification       ActionType = "NOTIFICATION"
)

// String returns the string representation of the action type
func (t ActionType) String() string {
	return string(t)
}

// ActionDescriptor describes a side effect to be performed by an external
// executor. The engine returns descriptors; it never executes them.
type ActionDescriptor struct {
	Type       ActionType             `json:"type"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}
