package workflow

import "context"

// GuardFunc is a predicate deciding whether a transition may fire given the
// current context and the triggering event
type GuardFunc func(wctx Context, evt *Event) bool

// ActionFunc is an asynchronous side effect attached to a transition. It is
// invoked with the post-transition context before rules run; an error aborts
// the whole event.
type ActionFunc func(ctx context.Context, wctx Context, evt *Event) error

// Transition is a permitted (status, event) -> status move, optionally gated
// by a guard and followed by a side-effect callback.
type Transition struct {
	From   Status
	To     Status
	Event  EventType
	Guard  GuardFunc
	Reason string // message reported when the guard rejects
	Action ActionFunc
}

// transitionKey indexes the table by (from, event) for O(1) lookup
type transitionKey struct {
	from  Status
	event EventType
}

// Guards are free functions over (context, event) so they stay independently
// testable and carry no hidden state.

func guardNoApprovalRequired(wctx Context, _ *Event) bool {
	return !wctx.RequiresApproval
}

func guardApprovalRequired(wctx Context, _ *Event) bool {
	return wctx.RequiresApproval
}

func guardNotRequester(wctx Context, evt *Event) bool {
	return evt.ActorID != wctx.RequesterID
}

func guardAssigneeOrUnassigned(wctx Context, evt *Event) bool {
	return wctx.AssignedTo == "" || wctx.AssignedTo == evt.ActorID
}

func guardAssignee(wctx Context, evt *Event) bool {
	return wctx.AssignedTo == evt.ActorID
}

func guardAssigneeOrRequester(wctx Context, evt *Event) bool {
	return wctx.AssignedTo == evt.ActorID || wctx.RequesterID == evt.ActorID
}

// DefaultTransitions returns the service-request lifecycle table. The table
// is static configuration: for every (status, event) pair at most one row's
// guard can pass. COMPLETED, CANCELLED and REJECTED have no outgoing rows.
func DefaultTransitions() []Transition {
	return []Transition{
		// Submission. Requests that need no approval go straight to
		// APPROVED; the rest re-enter PENDING and wait for an approver.
		{From: StatusPending, To: StatusApproved, Event: EventSubmit, Guard: guardNoApprovalRequired,
			Reason: "request requires approval before it can advance"},
		{From: StatusPending, To: StatusPending, Event: EventSubmit, Guard: guardApprovalRequired,
			Reason: "request does not require approval"},

		// Approval decisions. Self-approval is never allowed.
		{From: StatusPending, To: StatusApproved, Event: EventApprove, Guard: guardNotRequester,
			Reason: "requester cannot approve their own request"},
		{From: StatusPending, To: StatusRejected, Event: EventReject, Guard: guardNotRequester,
			Reason: "requester cannot reject their own request"},

		// Assignment and execution. The assigner role is enforced upstream.
		{From: StatusApproved, To: StatusInProgress, Event: EventAssign},
		{From: StatusApproved, To: StatusInProgress, Event: EventStart, Guard: guardAssigneeOrUnassigned,
			Reason: "request is assigned to a different actor"},
		{From: StatusInProgress, To: StatusCompleted, Event: EventComplete, Guard: guardAssignee,
			Reason: "only the assignee can complete the request"},

		// Hold and resume.
		{From: StatusInProgress, To: StatusOnHold, Event: EventHold, Guard: guardAssigneeOrRequester,
			Reason: "only the assignee or requester can put the request on hold"},
		{From: StatusOnHold, To: StatusInProgress, Event: EventResume, Guard: guardAssigneeOrRequester,
			Reason: "only the assignee or requester can resume the request"},

		// Cancellation from any non-terminal state.
		{From: StatusPending, To: StatusCancelled, Event: EventCancel, Guard: guardAssigneeOrRequester,
			Reason: "only the requester or assignee can cancel the request"},
		{From: StatusApproved, To: StatusCancelled, Event: EventCancel, Guard: guardAssigneeOrRequester,
			Reason: "only the requester or assignee can cancel the request"},
		{From: StatusInProgress, To: StatusCancelled, Event: EventCancel, Guard: guardAssigneeOrRequester,
			Reason: "only the requester or assignee can cancel the request"},
		{From: StatusOnHold, To: StatusCancelled, Event: EventCancel, Guard: guardAssigneeOrRequester,
			Reason: "only the requester or assignee can cancel the request"},
	}
}

// indexTransitions builds the (from, event) lookup map. Rows sharing a key
// keep declaration order; their guards must be mutually exclusive.
func indexTransitions(table []Transition) map[transitionKey][]Transition {
	index := make(map[transitionKey][]Transition, len(table))
	for _, t := range table {
		key := transitionKey{from: t.From, event: t.Event}
		index[key] = append(index[key], t)
	}
	return index
}
