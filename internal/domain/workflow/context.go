package workflow

import "time"

// Well-known metadata keys read by the default rule set.
const (
	MetaTotalAmount       = "total_amount"
	MetaServiceCategory   = "service_category"
	MetaCreatedAt         = "created_at"
	MetaScheduledDelivery = "scheduled_delivery_time"
)

// Event data keys promoted into Context fields on merge.
const (
	KeyAssignedTo = "assigned_to"
	KeyApprovedBy = "approved_by"
	KeyPriority   = "priority"
)

// Context carries the business data attached to a service request that
// guards and rules read. It is mutated only through successful transitions.
type Context struct {
	RequestID        string                 `json:"request_id"`
	ServiceID        string                 `json:"service_id"`
	TenantID         string                 `json:"tenant_id"`
	RequesterID      string                 `json:"requester_id"`
	RequiresApproval bool                   `json:"requires_approval"`
	Priority         Priority               `json:"priority"`
	AssignedTo       string                 `json:"assigned_to,omitempty"`
	ApprovedBy       string                 `json:"approved_by,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// Merge returns a copy of the context with event data shallow-overlaid onto
// the metadata map. Keys with struct counterparts (assigned_to, approved_by,
// priority) are promoted into the corresponding fields instead.
func (c Context) Merge(data map[string]interface{}) Context {
	merged := c
	merged.Metadata = make(map[string]interface{}, len(c.Metadata)+len(data))
	for k, v := range c.Metadata {
		merged.Metadata[k] = v
	}

	for k, v := range data {
		switch k {
		case KeyAssignedTo:
			if s, ok := v.(string); ok {
				merged.AssignedTo = s
				continue
			}
		case KeyApprovedBy:
			if s, ok := v.(string); ok {
				merged.ApprovedBy = s
				continue
			}
		case KeyPriority:
			if s, ok := v.(string); ok && Priority(s).IsValid() {
				merged.Priority = Priority(s)
				continue
			}
		}
		merged.Metadata[k] = v
	}

	return merged
}

// MetaString retrieves a string value from the metadata map
func (c Context) MetaString(key string) string {
	if val, ok := c.Metadata[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// MetaFloat retrieves a float64 value from the metadata map
func (c Context) MetaFloat(key string) (float64, bool) {
	val, ok := c.Metadata[key]
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// MetaTime retrieves a timestamp from the metadata map. Both time.Time
// values and RFC3339 strings are accepted.
func (c Context) MetaTime(key string) (time.Time, bool) {
	val, ok := c.Metadata[key]
	if !ok {
		return time.Time{}, false
	}
	switch v := val.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
