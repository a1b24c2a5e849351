package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/dispatcher"
	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/domain/workflow"
	"github.com/deskhive/deskhive/internal/telemetry"
)

// WorkflowService drives service requests through the workflow engine. It
// owns the read-process-persist cycle the engine deliberately does not:
// loading current state, serializing per request, persisting the outcome and
// handing emitted actions to the dispatcher.
type WorkflowService interface {
	// ProcessEvent applies one event to a request. The returned result
	// carries business outcomes (guard rejections, missing transitions);
	// the error return is reserved for infrastructure failures.
	ProcessEvent(ctx context.Context, requestID string, evt *workflow.Event) (workflow.Result, error)

	// ValidateTransition pre-checks an event's legality without side effects
	ValidateTransition(status workflow.Status, eventType workflow.EventType) workflow.Validation

	// AvailableActions lists UI affordances for a request and actor
	AvailableActions(ctx context.Context, requestID, actorID string) ([]workflow.ActionOption, error)

	// History returns the transition log for one request
	History(ctx context.Context, requestID string) ([]*entity.WorkflowTransition, error)

	// Stop waits for in-flight action dispatches to finish
	Stop()
}

type workflowServiceImpl struct {
	engine      *workflow.Engine
	requestRepo port.RequestRepository
	logRepo     port.TransitionLogRepository
	txManager   port.TransactionManager
	dispatcher  dispatcher.Dispatcher
	metrics     *telemetry.Metrics
	locks       *keyedMutex
	logger      *zap.Logger
	wg          sync.WaitGroup
}

// NewWorkflowService creates a WorkflowService
func NewWorkflowService(
	engine *workflow.Engine,
	requestRepo port.RequestRepository,
	logRepo port.TransitionLogRepository,
	txManager port.TransactionManager,
	d dispatcher.Dispatcher,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) WorkflowService {
	return &workflowServiceImpl{
		engine:      engine,
		requestRepo: requestRepo,
		logRepo:     logRepo,
		txManager:   txManager,
		dispatcher:  d,
		metrics:     metrics,
		locks:       newKeyedMutex(),
		logger:      logger,
	}
}

// ProcessEvent applies one event to a request
func (s *workflowServiceImpl) ProcessEvent(ctx context.Context, requestID string, evt *workflow.Event) (workflow.Result, error) {
	if evt == nil {
		return workflow.Result{}, fmt.Errorf("event cannot be nil")
	}

	// Two concurrent events for the same request must not transition from
	// the same stale base state.
	unlock := s.locks.Lock(requestID)
	defer unlock()

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return workflow.Result{}, fmt.Errorf("load request %s: %w", requestID, err)
	}

	state, err := stateFromEntity(req)
	if err != nil {
		return workflow.Result{}, err
	}

	result := s.engine.ProcessEvent(ctx, state, evt)

	rec := &entity.WorkflowTransition{
		RequestID:   requestID,
		TenantID:    req.TenantID,
		FromStatus:  state.Status.String(),
		ToStatus:    result.NewState.Status.String(),
		EventType:   evt.Type.String(),
		ActorID:     evt.ActorID,
		Success:     result.Success,
		Error:       result.Error,
		ActionCount: len(result.Actions),
		Timestamp:   time.Now(),
	}
	if len(result.TriggeredRules) > 0 {
		names, _ := json.Marshal(result.TriggeredRules)
		rec.RuleNames = string(names)
	}

	if !result.Success {
		s.metrics.TransitionsTotal.WithLabelValues(evt.Type.String(), "rejected").Inc()
		// Rejections are logged best-effort; they never mask the result.
		if logErr := s.logRepo.Create(ctx, rec); logErr != nil {
			s.logger.Error("failed to record rejected event",
				zap.String("request_id", requestID), zap.Error(logErr))
		}
		return result, nil
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := applyState(req, result.NewState); err != nil {
			return err
		}
		if err := s.requestRepo.Update(txCtx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if err := s.logRepo.Create(txCtx, rec); err != nil {
			return fmt.Errorf("record transition: %w", err)
		}
		return nil
	})
	if err != nil {
		return workflow.Result{}, err
	}

	s.metrics.TransitionsTotal.WithLabelValues(evt.Type.String(), "success").Inc()
	for _, rule := range result.TriggeredRules {
		s.metrics.RuleTriggers.WithLabelValues(rule).Inc()
	}
	s.metrics.ActionsEmitted.Add(float64(len(result.Actions)))

	s.logger.Info("workflow transition",
		zap.String("request_id", requestID),
		zap.String("from", rec.FromStatus),
		zap.String("to", rec.ToStatus),
		zap.String("event", rec.EventType),
		zap.String("actor_id", rec.ActorID))

	if len(result.Actions) > 0 {
		s.dispatchActions(rec.ID, result.NewState.Context, result.Actions)
	}

	return result, nil
}

// ValidateTransition pre-checks an event's legality without side effects
func (s *workflowServiceImpl) ValidateTransition(status workflow.Status, eventType workflow.EventType) workflow.Validation {
	return s.engine.ValidateTransition(status, eventType)
}

// AvailableActions lists UI affordances for a request and actor. The list is
// advisory; a later ProcessEvent can still reject an offered event.
func (s *workflowServiceImpl) AvailableActions(ctx context.Context, requestID, actorID string) ([]workflow.ActionOption, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", requestID, err)
	}

	state, err := stateFromEntity(req)
	if err != nil {
		return nil, err
	}

	return s.engine.AvailableActions(state.Status, actorID, &state.Context), nil
}

// History returns the transition log for one request
func (s *workflowServiceImpl) History(ctx context.Context, requestID string) ([]*entity.WorkflowTransition, error) {
	return s.logRepo.GetByRequestID(ctx, requestID)
}

// Stop waits for in-flight action dispatches to finish
func (s *workflowServiceImpl) Stop() {
	s.wg.Wait()
}

// dispatchActions hands descriptors to the executor layer off the request
// path and records the dispatch outcome on the transition row.
func (s *workflowServiceImpl) dispatchActions(recID int64, wctx workflow.Context, actions []workflow.ActionDescriptor) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Detached from the request's context: dispatch outlives the call.
		ctx := context.Background()

		var dispatchErr string
		if err := s.dispatcher.Dispatch(ctx, wctx, actions); err != nil {
			dispatchErr = err.Error()
			s.metrics.DispatchFailures.Inc()
			s.logger.Error("action dispatch failed",
				zap.String("request_id", wctx.RequestID),
				zap.Int64("transition_id", recID),
				zap.Error(err))
		}

		if err := s.logRepo.MarkDispatched(ctx, recID, time.Now(), dispatchErr); err != nil {
			s.logger.Error("failed to record dispatch outcome",
				zap.Int64("transition_id", recID), zap.Error(err))
		}
	}()
}

// stateFromEntity reconstructs the engine's view of a request
func stateFromEntity(req *entity.ServiceRequest) (workflow.State, error) {
	status := workflow.Status(req.Status)
	if !status.IsValid() {
		return workflow.State{}, fmt.Errorf("request %s has invalid status %q", req.ID, req.Status)
	}

	var metadata map[string]interface{}
	if req.Metadata != "" {
		if err := json.Unmarshal([]byte(req.Metadata), &metadata); err != nil {
			return workflow.State{}, fmt.Errorf("request %s has malformed metadata: %w", req.ID, err)
		}
	}

	return workflow.State{
		Status: status,
		Context: workflow.Context{
			RequestID:        req.ID,
			ServiceID:        req.ServiceID,
			TenantID:         req.TenantID,
			RequesterID:      req.RequesterID,
			RequiresApproval: req.RequiresApproval,
			Priority:         workflow.Priority(req.Priority),
			AssignedTo:       req.AssignedTo,
			ApprovedBy:       req.ApprovedBy,
			Metadata:         metadata,
		},
	}, nil
}

// applyState writes the post-transition state back onto the entity
func applyState(req *entity.ServiceRequest, state workflow.State) error {
	metadata, err := json.Marshal(state.Context.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	req.Status = state.Status.String()
	req.Priority = state.Context.Priority.String()
	req.AssignedTo = state.Context.AssignedTo
	req.ApprovedBy = state.Context.ApprovedBy
	req.Metadata = string(metadata)
	req.UpdatedAt = time.Now()

	if state.Status == workflow.StatusCompleted && req.CompletedAt == nil {
		now := time.Now()
		req.CompletedAt = &now
	}

	return nil
}
