package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/domain/workflow"
)

// Dispatcher routes action descriptors emitted by the workflow engine to
// their registered executors. The engine never runs side effects itself;
// everything it reports lands here.
type Dispatcher interface {
	// Subscribe registers a handler for an action type
	Subscribe(actionType workflow.ActionType, handler Handler)

	// SubscribeNamed registers a handler with a name for debugging
	SubscribeNamed(actionType workflow.ActionType, name string, handler Handler)

	// Dispatch executes all handlers for each action synchronously, in
	// registration order. The first handler error stops the batch.
	Dispatch(ctx context.Context, wctx workflow.Context, actions []workflow.ActionDescriptor) error

	// DispatchAsync executes handlers without waiting for completion
	DispatchAsync(ctx context.Context, wctx workflow.Context, actions []workflow.ActionDescriptor)

	// ListHandlers returns registered handlers for an action type
	ListHandlers(actionType workflow.ActionType) []HandlerInfo

	// Close shuts down the dispatcher and waits for async handlers
	Close() error
}

type actionDispatcher struct {
	mu       sync.RWMutex
	handlers map[workflow.ActionType][]HandlerInfo
	logger   *zap.Logger

	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewDispatcher creates an action dispatcher
func NewDispatcher(logger *zap.Logger) Dispatcher {
	return &actionDispatcher{
		handlers: make(map[workflow.ActionType][]HandlerInfo),
		logger:   logger,
	}
}

// Subscribe registers a handler with an auto-generated name
func (d *actionDispatcher) Subscribe(actionType workflow.ActionType, handler Handler) {
	d.mu.RLock()
	name := fmt.Sprintf("handler-%d", len(d.handlers[actionType]))
	d.mu.RUnlock()
	d.SubscribeNamed(actionType, name, handler)
}

// SubscribeNamed registers a handler with a specific name for debugging
func (d *actionDispatcher) SubscribeNamed(actionType workflow.ActionType, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[actionType] = append(d.handlers[actionType], HandlerInfo{
		Name:       name,
		ActionType: actionType,
		Handler:    handler,
	})

	d.logger.Info("action handler registered",
		zap.String("action_type", actionType.String()),
		zap.String("handler_name", name))
}

// Dispatch executes handlers for each action synchronously
func (d *actionDispatcher) Dispatch(ctx context.Context, wctx workflow.Context, actions []workflow.ActionDescriptor) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}

	for _, action := range actions {
		d.mu.RLock()
		handlers := d.handlers[action.Type]
		d.mu.RUnlock()

		if len(handlers) == 0 {
			d.logger.Warn("no handler for action",
				zap.String("action_type", action.Type.String()),
				zap.String("request_id", wctx.RequestID))
			continue
		}

		for _, info := range handlers {
			if err := d.safeExecute(ctx, wctx, action, info); err != nil {
				d.logger.Error("action handler failed",
					zap.String("action_type", action.Type.String()),
					zap.String("handler_name", info.Name),
					zap.String("request_id", wctx.RequestID),
					zap.Error(err))
				return fmt.Errorf("handler %s failed: %w", info.Name, err)
			}
		}
	}

	return nil
}

// DispatchAsync executes handlers without waiting for completion
func (d *actionDispatcher) DispatchAsync(ctx context.Context, wctx workflow.Context, actions []workflow.ActionDescriptor) {
	if d.closed.Load() {
		d.logger.Error("cannot dispatch actions, dispatcher is closed",
			zap.String("request_id", wctx.RequestID))
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.Dispatch(ctx, wctx, actions); err != nil {
			d.logger.Error("async dispatch failed",
				zap.String("request_id", wctx.RequestID),
				zap.Error(err))
		}
	}()
}

// ListHandlers returns registered handlers for an action type
func (d *actionDispatcher) ListHandlers(actionType workflow.ActionType) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.handlers[actionType]
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{
			Name:        h.Name,
			ActionType:  h.ActionType,
			Description: h.Description,
		}
	}
	return result
}

// Close shuts down the dispatcher and waits for async handlers to complete
func (d *actionDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("dispatcher already closed")
	}
	d.wg.Wait()
	return nil
}

// safeExecute runs a handler with panic recovery
func (d *actionDispatcher) safeExecute(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return info.Handler(ctx, wctx, action)
}
