package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/dispatcher"
	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/domain/workflow"
	"github.com/deskhive/deskhive/internal/telemetry"
)

// Mock repositories

type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*entity.ServiceRequest

	createFunc func(ctx context.Context, req *entity.ServiceRequest) error
	updateFunc func(ctx context.Context, req *entity.ServiceRequest) error
}

func newMockRequestRepo(seed ...*entity.ServiceRequest) *mockRequestRepo {
	m := &mockRequestRepo{requests: make(map[string]*entity.ServiceRequest)}
	for _, req := range seed {
		copied := *req
		m.requests[req.ID] = &copied
	}
	return m
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.ServiceRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *mockRequestRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.ServiceRequest, error) {
	return nil, nil
}

func (m *mockRequestRepo) Update(ctx context.Context, req *entity.ServiceRequest) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.requests[req.ID]
	if !ok {
		return port.ErrNotFound
	}
	if stored.Version != req.Version {
		return port.ErrVersionConflict
	}
	req.Version++
	copied := *req
	m.requests[req.ID] = &copied
	return nil
}

type mockTransitionRepo struct {
	mu         sync.Mutex
	rows       []*entity.WorkflowTransition
	dispatched map[int64]string
}

func newMockTransitionRepo() *mockTransitionRepo {
	return &mockTransitionRepo{dispatched: make(map[int64]string)}
}

func (m *mockTransitionRepo) Create(ctx context.Context, rec *entity.WorkflowTransition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, rec)
	return nil
}

func (m *mockTransitionRepo) GetByRequestID(ctx context.Context, requestID string) ([]*entity.WorkflowTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.WorkflowTransition
	for _, row := range m.rows {
		if row.RequestID == requestID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *mockTransitionRepo) ListByTenant(ctx context.Context, tenantID string, start, end time.Time) ([]*entity.WorkflowTransition, error) {
	return m.rows, nil
}

func (m *mockTransitionRepo) MarkDispatched(ctx context.Context, id int64, at time.Time, dispatchErr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched[id] = dispatchErr
	return nil
}

type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func newTestWorkflowService(reqRepo *mockRequestRepo, logRepo *mockTransitionRepo, d dispatcher.Dispatcher) WorkflowService {
	engine := workflow.NewEngine(workflow.DefaultRuleConfig(), zap.NewNop())
	metrics := telemetry.New(prometheus.NewRegistry())
	return NewWorkflowService(engine, reqRepo, logRepo, mockTxManager{}, d, metrics, zap.NewNop())
}

func pendingRequest(id string) *entity.ServiceRequest {
	return &entity.ServiceRequest{
		ID:          id,
		TenantID:    "t1",
		RequesterID: "u1",
		Status:      workflow.StatusPending.String(),
		Priority:    workflow.PriorityNormal.String(),
		Metadata:    `{}`,
	}
}

func TestWorkflowService_ProcessEventPersistsNewState(t *testing.T) {
	reqRepo := newMockRequestRepo(pendingRequest("r1"))
	logRepo := newMockTransitionRepo()
	svc := newTestWorkflowService(reqRepo, logRepo, dispatcher.NewDispatcher(zap.NewNop()))

	result, err := svc.ProcessEvent(context.Background(), "r1", workflow.NewEvent(workflow.EventSubmit, "u1", nil))
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, workflow.StatusApproved, result.NewState.Status)

	stored, err := reqRepo.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", stored.Status)
	assert.EqualValues(t, 1, stored.Version, "optimistic version should advance")

	require.Len(t, logRepo.rows, 1)
	row := logRepo.rows[0]
	assert.Equal(t, "PENDING", row.FromStatus)
	assert.Equal(t, "APPROVED", row.ToStatus)
	assert.Equal(t, "SUBMIT", row.EventType)
	assert.Equal(t, "u1", row.ActorID)
	assert.True(t, row.Success)
}

func TestWorkflowService_GuardRejectionLeavesStateUntouched(t *testing.T) {
	req := pendingRequest("r1")
	req.RequiresApproval = true
	reqRepo := newMockRequestRepo(req)
	logRepo := newMockTransitionRepo()
	svc := newTestWorkflowService(reqRepo, logRepo, dispatcher.NewDispatcher(zap.NewNop()))

	// Self-approval must be rejected.
	result, err := svc.ProcessEvent(context.Background(), "r1", workflow.NewEvent(workflow.EventApprove, "u1", nil))
	require.NoError(t, err, "guard rejections are results, not errors")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)

	stored, err := reqRepo.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", stored.Status)
	assert.EqualValues(t, 0, stored.Version)

	// The rejection still lands in the transition log for reporting.
	require.Len(t, logRepo.rows, 1)
	assert.False(t, logRepo.rows[0].Success)
}

func TestWorkflowService_UnknownRequestIsAnError(t *testing.T) {
	svc := newTestWorkflowService(newMockRequestRepo(), newMockTransitionRepo(), dispatcher.NewDispatcher(zap.NewNop()))

	_, err := svc.ProcessEvent(context.Background(), "missing", workflow.NewEvent(workflow.EventSubmit, "u1", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestWorkflowService_ActionsAreDispatchedAndRecorded(t *testing.T) {
	req := pendingRequest("r1")
	req.Metadata = `{"total_amount": 12.5}`
	reqRepo := newMockRequestRepo(req)
	logRepo := newMockTransitionRepo()

	d := dispatcher.NewDispatcher(zap.NewNop())
	var handled []workflow.ActionType
	var mu sync.Mutex
	d.Subscribe(workflow.ActionAutoApprove, func(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, action.Type)
		return nil
	})

	svc := newTestWorkflowService(reqRepo, logRepo, d)

	result, err := svc.ProcessEvent(context.Background(), "r1", workflow.NewEvent(workflow.EventSubmit, "u1", nil))
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)
	require.NotEmpty(t, result.Actions)

	svc.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, handled, workflow.ActionAutoApprove)

	logRepo.mu.Lock()
	defer logRepo.mu.Unlock()
	dispatchErr, ok := logRepo.dispatched[logRepo.rows[0].ID]
	assert.True(t, ok, "dispatch outcome should be recorded")
	assert.Empty(t, dispatchErr)
}

func TestWorkflowService_AvailableActionsUsesRealContext(t *testing.T) {
	req := pendingRequest("r1")
	req.Status = workflow.StatusInProgress.String()
	req.AssignedTo = "u2"
	reqRepo := newMockRequestRepo(req)
	svc := newTestWorkflowService(reqRepo, newMockTransitionRepo(), dispatcher.NewDispatcher(zap.NewNop()))

	options, err := svc.AvailableActions(context.Background(), "r1", "u2")
	require.NoError(t, err)

	var events []workflow.EventType
	for _, opt := range options {
		events = append(events, opt.Action)
	}
	assert.Contains(t, events, workflow.EventComplete)
	assert.Contains(t, events, workflow.EventHold)

	// A stranger gets nothing the guards would reject.
	options, err = svc.AvailableActions(context.Background(), "r1", "stranger")
	require.NoError(t, err)
	assert.Empty(t, options)
}

func TestWorkflowService_ConcurrentEventsSerializePerRequest(t *testing.T) {
	req := pendingRequest("r1")
	reqRepo := newMockRequestRepo(req)
	logRepo := newMockTransitionRepo()
	svc := newTestWorkflowService(reqRepo, logRepo, dispatcher.NewDispatcher(zap.NewNop()))

	var wg sync.WaitGroup
	successes := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.ProcessEvent(context.Background(), "r1", workflow.NewEvent(workflow.EventCancel, "u1", nil))
			require.NoError(t, err)
			successes <- result.Success
		}()
	}
	wg.Wait()
	close(successes)

	// Exactly one CANCEL can win; the rest must see CANCELLED and fail.
	won := 0
	for ok := range successes {
		if ok {
			won++
		}
	}
	assert.Equal(t, 1, won)
}
