package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// State is a request's current lifecycle position plus its business context
type State struct {
	Status  Status  `json:"status"`
	Context Context `json:"context"`
}

// Result is the outcome of processing one event. The engine never persists
// NewState or executes Actions; both are the caller's responsibility.
type Result struct {
	NewState       State              `json:"new_state"`
	Actions        []ActionDescriptor `json:"actions"`
	TriggeredRules []string           `json:"triggered_rules,omitempty"`
	Success        bool               `json:"success"`
	Error          string             `json:"error,omitempty"`
}

// Validation is the outcome of a side-effect-free transition pre-check
type Validation struct {
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
	NextState Status `json:"next_state,omitempty"`
}

// ActionOption describes an event a UI may offer for the current state.
// Guard evaluation uses a permissive context when none is supplied, so this
// is advisory only and must never be treated as an authorization decision.
type ActionOption struct {
	Action             EventType `json:"action"`
	Label              string    `json:"label"`
	Description        string    `json:"description"`
	RequiresPermission bool      `json:"requires_permission,omitempty"`
}

var eventOptions = map[EventType]ActionOption{
	EventSubmit:   {Action: EventSubmit, Label: "Submit", Description: "Submit the request for processing"},
	EventApprove:  {Action: EventApprove, Label: "Approve", Description: "Approve the pending request", RequiresPermission: true},
	EventReject:   {Action: EventReject, Label: "Reject", Description: "Reject the pending request", RequiresPermission: true},
	EventAssign:   {Action: EventAssign, Label: "Assign", Description: "Assign the request to a handler", RequiresPermission: true},
	EventStart:    {Action: EventStart, Label: "Start", Description: "Start working on the request"},
	EventComplete: {Action: EventComplete, Label: "Complete", Description: "Mark the request as completed"},
	EventCancel:   {Action: EventCancel, Label: "Cancel", Description: "Cancel the request"},
	EventHold:     {Action: EventHold, Label: "Put on hold", Description: "Pause work on the request"},
	EventResume:   {Action: EventResume, Label: "Resume", Description: "Resume a request on hold"},
}

// Engine evaluates workflow events against the transition table and rule
// set. It holds no mutable state across invocations, so one instance is safe
// to share across concurrent callers; serializing read-process-persist per
// request is the caller's concern.
type Engine struct {
	table  []Transition
	index  map[transitionKey][]Transition
	rules  []Rule
	logger *zap.Logger
}

// Option configures the engine
type Option func(*Engine)

// WithTransitions replaces the default transition table
func WithTransitions(table []Transition) Option {
	return func(e *Engine) {
		e.table = table
	}
}

// WithRules replaces the default rule set
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// NewEngine creates a workflow engine with the default transition table and
// the default rules built from cfg
func NewEngine(cfg RuleConfig, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		table:  DefaultTransitions(),
		rules:  DefaultRules(cfg, time.Now),
		logger: logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.index = indexTransitions(e.table)
	return e
}

// ProcessEvent applies one event to the current state. It is a pure
// compute-and-report function: every code path returns a structured result
// and no internal error escapes as a Go error or panic. On failure the
// returned state equals the input state.
func (e *Engine) ProcessEvent(ctx context.Context, current State, evt *Event) Result {
	candidates, ok := e.index[transitionKey{from: current.Status, event: evt.Type}]
	if !ok {
		return Result{
			NewState: current,
			Actions:  []ActionDescriptor{},
			Success:  false,
			Error:    fmt.Sprintf("%s: no transition for event %s from state %s", ErrNoTransition, evt.Type, current.Status),
		}
	}

	var matched *Transition
	for i := range candidates {
		t := &candidates[i]
		if t.Guard == nil || t.Guard(current.Context, evt) {
			matched = t
			break
		}
	}

	if matched == nil {
		reason := candidates[0].Reason
		if reason == "" {
			reason = ErrGuardRejected.Error()
		}
		return Result{
			NewState: current,
			Actions:  []ActionDescriptor{},
			Success:  false,
			Error:    fmt.Sprintf("event %s rejected in state %s: %s", evt.Type, current.Status, reason),
		}
	}

	newState := State{
		Status:  matched.To,
		Context: current.Context.Merge(evt.Data),
	}

	if matched.Action != nil {
		if err := matched.Action(ctx, newState.Context, evt); err != nil {
			// The cause is logged but intentionally not echoed to the caller.
			e.logger.Error("transition action failed",
				zap.String("request_id", current.Context.RequestID),
				zap.String("event", evt.Type.String()),
				zap.String("from", current.Status.String()),
				zap.String("to", matched.To.String()),
				zap.Error(err))
			return Result{
				NewState: current,
				Actions:  []ActionDescriptor{},
				Success:  false,
				Error:    "internal workflow error",
			}
		}
	}

	actions, triggered := e.evalRules(newState.Context)

	return Result{
		NewState:       newState,
		Actions:        actions,
		TriggeredRules: triggered,
		Success:        true,
	}
}

// ValidateTransition reports whether an event would be legal from the given
// status, without mutating anything. Guards are evaluated against a
// synthetic permissive context, so a real event can still fail a guard this
// check passed.
func (e *Engine) ValidateTransition(status Status, eventType EventType) Validation {
	if !status.IsValid() {
		return Validation{Valid: false, Error: fmt.Sprintf("%s: %s", ErrInvalidState, status)}
	}

	candidates, ok := e.index[transitionKey{from: status, event: eventType}]
	if !ok {
		return Validation{Valid: false, Error: fmt.Sprintf("%s: no transition for event %s from state %s", ErrNoTransition, eventType, status)}
	}

	wctx, evt := syntheticContext()
	for i := range candidates {
		t := &candidates[i]
		if t.Guard == nil || t.Guard(wctx, evt) {
			return Validation{Valid: true, NextState: t.To}
		}
	}

	return Validation{Valid: false, Error: fmt.Sprintf("event %s rejected in state %s: %s", eventType, status, candidates[0].Reason)}
}

// AvailableActions enumerates the events whose guards pass for the given
// actor in the given status, for UI affordances. When wctx is nil a
// permissive mock context is used; the list is advisory only.
func (e *Engine) AvailableActions(status Status, actorID string, wctx *Context) []ActionOption {
	evt := &Event{Type: "", ActorID: actorID}

	var guardCtx Context
	if wctx != nil {
		guardCtx = *wctx
	} else {
		// Mock context where assignment-based guards pass for the actor.
		guardCtx = Context{AssignedTo: actorID}
	}

	seen := make(map[EventType]bool)
	options := make([]ActionOption, 0, 4)
	for _, t := range e.table {
		if t.From != status || seen[t.Event] {
			continue
		}
		evt.Type = t.Event
		if t.Guard != nil && !t.Guard(guardCtx, evt) {
			continue
		}
		seen[t.Event] = true
		if opt, ok := eventOptions[t.Event]; ok {
			options = append(options, opt)
		} else {
			options = append(options, ActionOption{Action: t.Event, Label: t.Event.String()})
		}
	}

	return options
}

// evalRules runs every rule against the post-transition context in
// declaration order. All matching rules contribute actions. A panicking rule
// is logged and skipped; it never aborts the remaining rules.
func (e *Engine) evalRules(wctx Context) (actions []ActionDescriptor, triggered []string) {
	actions = []ActionDescriptor{}
	for _, rule := range e.rules {
		acts, ok := e.evalRule(rule, wctx)
		if !ok {
			continue
		}
		triggered = append(triggered, rule.Name)
		actions = append(actions, acts...)
	}
	return actions, triggered
}

func (e *Engine) evalRule(rule Rule, wctx Context) (acts []ActionDescriptor, matched bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("rule evaluation panicked",
				zap.String("rule", rule.Name),
				zap.String("request_id", wctx.RequestID),
				zap.Any("panic", r))
			acts = nil
			matched = false
		}
	}()

	if rule.Condition == nil || !rule.Condition(wctx) {
		return nil, false
	}
	if rule.Actions == nil {
		return nil, true
	}
	return rule.Actions(wctx), true
}

// syntheticContext builds the context and event used for side-effect-free
// validation: a distinct requester and an actor who is also the assignee, so
// every guard in the default table can pass.
func syntheticContext() (Context, *Event) {
	return Context{
			RequesterID: "requester",
			AssignedTo:  "actor",
		}, &Event{
			ActorID: "actor",
		}
}
