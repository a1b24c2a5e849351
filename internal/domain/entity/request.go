package entity

import "time"

// ServiceRequest represents a tenant's service request and its workflow state
type ServiceRequest struct {
	ID               string     `json:"id"`
	TenantID         string     `json:"tenant_id"`
	ServiceID        string     `json:"service_id"`
	RequesterID      string     `json:"requester_id"`
	Title            string     `json:"title"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	RequiresApproval bool       `json:"requires_approval"`
	AssignedTo       string     `json:"assigned_to,omitempty"`
	ApprovedBy       string     `json:"approved_by,omitempty"`
	Metadata         string     `json:"metadata"` // JSON-encoded key-value map
	Version          int64      `json:"version"`  // optimistic concurrency token
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
