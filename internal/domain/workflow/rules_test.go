package workflow

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fixedClock returns a clock frozen at the given instant
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestRule_AutoApproveLowValue(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name             string
		amount           interface{}
		requiresApproval bool
		want             bool
	}{
		{"below threshold", 10.0, false, true},
		{"integer amount", 10, false, true},
		{"at threshold", 100.0, false, false},
		{"above threshold", 250.0, false, false},
		{"requires approval", 10.0, true, false},
		{"no amount", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metadata := map[string]interface{}{}
			if tt.amount != nil {
				metadata[MetaTotalAmount] = tt.amount
			}
			state := State{
				Status: StatusPending,
				Context: Context{
					RequestID:        "r1",
					RequesterID:      "u1",
					RequiresApproval: tt.requiresApproval,
					Metadata:         metadata,
				},
			}

			// Drive any successful transition; rules run on the result.
			evt := NewEvent(EventCancel, "u1", nil)
			result := engine.ProcessEvent(context.Background(), state, evt)
			if !result.Success {
				t.Fatalf("ProcessEvent failed: %s", result.Error)
			}

			if got := containsAction(result.Actions, ActionAutoApprove); got != tt.want {
				t.Errorf("AUTO_APPROVE fired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRule_AutoAssignCategory(t *testing.T) {
	engine := newTestEngine()

	tests := []struct {
		name       string
		category   string
		assignedTo string
		want       bool
	}{
		{"known category unassigned", "PRINTING", "", true},
		{"known category already assigned", "PRINTING", "u2", false},
		{"unknown category", "SKYDIVING", "", false},
		{"no category", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{
				Status: StatusPending,
				Context: Context{
					RequestID:        "r1",
					RequesterID:      "u1",
					RequiresApproval: true,
					AssignedTo:       tt.assignedTo,
					Metadata:         map[string]interface{}{MetaServiceCategory: tt.category},
				},
			}

			result := engine.ProcessEvent(context.Background(), state, NewEvent(EventSubmit, "u1", nil))
			if !result.Success {
				t.Fatalf("ProcessEvent failed: %s", result.Error)
			}

			if got := containsAction(result.Actions, ActionAutoAssign); got != tt.want {
				t.Errorf("AUTO_ASSIGN fired = %v, want %v", got, tt.want)
			}
			if tt.want {
				var desc ActionDescriptor
				for _, a := range result.Actions {
					if a.Type == ActionAutoAssign {
						desc = a
					}
				}
				if desc.Parameters["assign_to"] != "facilities" {
					t.Errorf("assign_to = %v, want facilities", desc.Parameters["assign_to"])
				}
			}
		})
	}
}

func TestRule_UrgentEscalation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := DefaultRuleConfig()
	engine := NewEngine(cfg, zap.NewNop(), WithRules(DefaultRules(cfg, fixedClock(now))))

	tests := []struct {
		name     string
		priority Priority
		created  time.Time
		want     bool
	}{
		{"urgent and stale", PriorityUrgent, now.Add(-5 * time.Hour), true},
		{"urgent but fresh", PriorityUrgent, now.Add(-30 * time.Minute), false},
		{"stale but not urgent", PriorityHigh, now.Add(-5 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := State{
				Status: StatusPending,
				Context: Context{
					RequestID:        "r1",
					RequesterID:      "u1",
					RequiresApproval: true,
					Priority:         tt.priority,
					Metadata:         map[string]interface{}{MetaCreatedAt: tt.created},
				},
			}

			result := engine.ProcessEvent(context.Background(), state, NewEvent(EventSubmit, "u1", nil))
			if !result.Success {
				t.Fatalf("ProcessEvent failed: %s", result.Error)
			}

			if got := containsAction(result.Actions, ActionPriorityEscalation); got != tt.want {
				t.Errorf("PRIORITY_ESCALATION fired = %v, want %v", got, tt.want)
			}
			// Escalation always travels with a manager notification.
			if got := containsAction(result.Actions, ActionNotification); got != tt.want {
				t.Errorf("NOTIFICATION fired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRule_OverdueDelivery(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := DefaultRuleConfig()
	engine := NewEngine(cfg, zap.NewNop(), WithRules(DefaultRules(cfg, fixedClock(now))))

	state := State{
		Status: StatusInProgress,
		Context: Context{
			RequestID:   "r1",
			RequesterID: "u1",
			AssignedTo:  "u2",
			Metadata: map[string]interface{}{
				// RFC3339 strings are accepted alongside time.Time values.
				MetaScheduledDelivery: now.Add(-time.Hour).Format(time.RFC3339),
			},
		},
	}

	result := engine.ProcessEvent(context.Background(), state, NewEvent(EventHold, "u2", nil))
	if !result.Success {
		t.Fatalf("ProcessEvent failed: %s", result.Error)
	}

	var notification *ActionDescriptor
	for i := range result.Actions {
		if result.Actions[i].Type == ActionNotification {
			notification = &result.Actions[i]
		}
	}
	if notification == nil {
		t.Fatal("expected NOTIFICATION for overdue delivery")
	}

	recipients, ok := notification.Parameters["recipients"].([]string)
	if !ok || len(recipients) != 3 {
		t.Fatalf("recipients = %v, want requester, assignee and manager", notification.Parameters["recipients"])
	}
}

func TestRule_PanicDoesNotSuppressOtherRules(t *testing.T) {
	cfg := DefaultRuleConfig()
	rules := []Rule{
		{
			Name: "exploding-rule",
			Condition: func(wctx Context) bool {
				panic("boom")
			},
		},
	}
	rules = append(rules, DefaultRules(cfg, time.Now)...)

	engine := NewEngine(cfg, zap.NewNop(), WithRules(rules))
	state := State{
		Status: StatusPending,
		Context: Context{
			RequestID:        "r1",
			RequesterID:      "u1",
			RequiresApproval: false,
			Metadata:         map[string]interface{}{MetaTotalAmount: 10.0},
		},
	}

	result := engine.ProcessEvent(context.Background(), state, NewEvent(EventSubmit, "u1", nil))
	if !result.Success {
		t.Fatalf("ProcessEvent failed: %s", result.Error)
	}
	if !containsAction(result.Actions, ActionAutoApprove) {
		t.Error("panicking rule suppressed later rules")
	}
	for _, name := range result.TriggeredRules {
		if name == "exploding-rule" {
			t.Error("panicking rule reported as triggered")
		}
	}
}

func TestRule_AllMatchingRulesFire(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cfg := DefaultRuleConfig()
	engine := NewEngine(cfg, zap.NewNop(), WithRules(DefaultRules(cfg, fixedClock(now))))

	state := State{
		Status: StatusPending,
		Context: Context{
			RequestID:        "r1",
			RequesterID:      "u1",
			RequiresApproval: false,
			Priority:         PriorityUrgent,
			Metadata: map[string]interface{}{
				MetaTotalAmount:     25.0,
				MetaServiceCategory: "CATERING",
				MetaCreatedAt:       now.Add(-6 * time.Hour),
			},
		},
	}

	result := engine.ProcessEvent(context.Background(), state, NewEvent(EventSubmit, "u1", nil))
	if !result.Success {
		t.Fatalf("ProcessEvent failed: %s", result.Error)
	}

	if len(result.TriggeredRules) != 3 {
		t.Errorf("triggered = %v, want auto-approve, auto-assign and escalation", result.TriggeredRules)
	}
	for _, want := range []ActionType{ActionAutoApprove, ActionAutoAssign, ActionPriorityEscalation, ActionNotification} {
		if !containsAction(result.Actions, want) {
			t.Errorf("missing action %s", want)
		}
	}
}
