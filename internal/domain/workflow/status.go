package workflow

// Status represents a service request's position in its lifecycle
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusOnHold     Status = "ON_HOLD"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusRejected   Status = "REJECTED"
)

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusApproved:   true,
	StatusInProgress: true,
	StatusOnHold:     true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusRejected:   true,
}

var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusCancelled: true,
	StatusRejected:  true,
}

// IsTerminal returns true if the status is terminal (no outgoing transitions)
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a known lifecycle status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// Priority represents the urgency of a service request
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var validPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// IsValid returns true if the priority is a known priority level
func (p Priority) IsValid() bool {
	return validPriorities[p]
}

// String returns the string representation of the priority
func (p Priority) String() string {
	return string(p)
}
