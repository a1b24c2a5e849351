package workflow

import "time"

// Rule is a post-transition condition/action pair independent of the
// transition table, used for automation. Conditions run against the
// resulting context of every processed event; all matching rules fire.
//
// Actions is a function rather than a fixed slice because descriptor
// parameters (assignee role, notification recipients) depend on the context
// the rule matched against.
type Rule struct {
	Name        string
	Description string
	Condition   func(wctx Context) bool
	Actions     func(wctx Context) []ActionDescriptor
}

// RuleConfig holds the tunable thresholds read by the default rule set.
// These are domain configuration, not fixed law.
type RuleConfig struct {
	// AutoApproveLimit is the total_amount below which a request that does
	// not otherwise require approval is auto-approved.
	AutoApproveLimit float64

	// EscalationAfter is how long an URGENT request may sit before a
	// priority escalation is requested.
	EscalationAfter time.Duration

	// CategoryAssignees maps a service category to the role auto-assigned
	// to unassigned requests in that category.
	CategoryAssignees map[string]string

	// ManagerRole is the recipient role for escalation and overdue notices.
	ManagerRole string
}

// DefaultRuleConfig returns the thresholds used when none are configured
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		AutoApproveLimit: 100,
		EscalationAfter:  4 * time.Hour,
		CategoryAssignees: map[string]string{
			"PRINTING":    "facilities",
			"CATERING":    "catering",
			"IT_SUPPORT":  "it-support",
			"MAINTENANCE": "facilities",
		},
		ManagerRole: "space-manager",
	}
}

// DefaultRules builds the standard automation rules. The clock is injected
// so time-based conditions stay testable.
func DefaultRules(cfg RuleConfig, now func() time.Time) []Rule {
	if now == nil {
		now = time.Now
	}

	return []Rule{
		{
			Name:        "auto-approve-low-value",
			Description: "Approve low-value requests that need no manual approval",
			Condition: func(wctx Context) bool {
				if wctx.RequiresApproval {
					return false
				}
				amount, ok := wctx.MetaFloat(MetaTotalAmount)
				return ok && amount < cfg.AutoApproveLimit
			},
			Actions: func(wctx Context) []ActionDescriptor {
				amount, _ := wctx.MetaFloat(MetaTotalAmount)
				return []ActionDescriptor{{
					Type: ActionAutoApprove,
					Parameters: map[string]interface{}{
						"request_id": wctx.RequestID,
						"amount":     amount,
					},
				}}
			},
		},
		{
			Name:        "auto-assign-category",
			Description: "Route unassigned requests to the team owning their category",
			Condition: func(wctx Context) bool {
				if wctx.AssignedTo != "" {
					return false
				}
				_, known := cfg.CategoryAssignees[wctx.MetaString(MetaServiceCategory)]
				return known
			},
			Actions: func(wctx Context) []ActionDescriptor {
				category := wctx.MetaString(MetaServiceCategory)
				return []ActionDescriptor{{
					Type: ActionAutoAssign,
					Parameters: map[string]interface{}{
						"request_id": wctx.RequestID,
						"category":   category,
						"assign_to":  cfg.CategoryAssignees[category],
					},
				}}
			},
		},
		{
			Name:        "urgent-escalation",
			Description: "Escalate urgent requests that have been waiting too long",
			Condition: func(wctx Context) bool {
				if wctx.Priority != PriorityUrgent {
					return false
				}
				created, ok := wctx.MetaTime(MetaCreatedAt)
				return ok && now().Sub(created) > cfg.EscalationAfter
			},
			Actions: func(wctx Context) []ActionDescriptor {
				return []ActionDescriptor{
					{
						Type: ActionPriorityEscalation,
						Parameters: map[string]interface{}{
							"request_id": wctx.RequestID,
							"priority":   wctx.Priority.String(),
						},
					},
					{
						Type: ActionNotification,
						Parameters: map[string]interface{}{
							"request_id": wctx.RequestID,
							"recipient":  cfg.ManagerRole,
							"template":   "urgent_request_waiting",
						},
					},
				}
			},
		},
		{
			Name:        "overdue-delivery",
			Description: "Notify stakeholders when a scheduled delivery time has passed",
			Condition: func(wctx Context) bool {
				scheduled, ok := wctx.MetaTime(MetaScheduledDelivery)
				return ok && now().After(scheduled)
			},
			Actions: func(wctx Context) []ActionDescriptor {
				recipients := []string{wctx.RequesterID}
				if wctx.AssignedTo != "" {
					recipients = append(recipients, wctx.AssignedTo)
				}
				recipients = append(recipients, cfg.ManagerRole)
				return []ActionDescriptor{{
					Type: ActionNotification,
					Parameters: map[string]interface{}{
						"request_id": wctx.RequestID,
						"recipients": recipients,
						"template":   "delivery_overdue",
					},
				}}
			},
		},
	}
}
