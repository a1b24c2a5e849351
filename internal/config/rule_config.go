package config

import "github.com/deskhive/deskhive/internal/domain/workflow"

// RuleConfig converts the workflow section of the file-based config into
// the rule engine's configuration. Missing values fall back to the engine
// defaults so a partial config section still yields a working rule set.
func (c *WorkflowConfig) RuleConfig() workflow.RuleConfig {
	rc := workflow.DefaultRuleConfig()
	if c.AutoApproveLimit > 0 {
		rc.AutoApproveLimit = c.AutoApproveLimit
	}
	if c.EscalationAfter > 0 {
		rc.EscalationAfter = c.EscalationAfter
	}
	if len(c.CategoryAssignees) > 0 {
		rc.CategoryAssignees = c.CategoryAssignees
	}
	if c.ManagerRole != "" {
		rc.ManagerRole = c.ManagerRole
	}
	return rc
}
