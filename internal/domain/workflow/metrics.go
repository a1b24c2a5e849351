package workflow

import "time"

// RuleStat reports how often a rule matched and how often the events it
// fired on ultimately succeeded.
type RuleStat struct {
	Triggered   int64   `json:"triggered"`
	Succeeded   int64   `json:"succeeded"`
	SuccessRate float64 `json:"success_rate"`
}

// Metrics aggregates historical workflow activity for a tenant over a
// reporting period. The engine holds no history; this shape is produced by
// the caller from the persisted transition log.
type Metrics struct {
	TenantID           string                     `json:"tenant_id"`
	PeriodStart        time.Time                  `json:"period_start"`
	PeriodEnd          time.Time                  `json:"period_end"`
	TotalTransitions   int64                      `json:"total_transitions"`
	TransitionsByEvent map[EventType]int64        `json:"transitions_by_event"`
	AvgStateDuration   map[Status]time.Duration   `json:"avg_state_duration"`
	Bottlenecks        []Status                   `json:"bottlenecks"`
	RuleStats          map[string]RuleStat        `json:"rule_stats"`
}
