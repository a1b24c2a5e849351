package port

import (
	"context"
	"errors"
	"time"

	"github.com/deskhive/deskhive/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned when an optimistic update lost the race
	// against a concurrent writer
	ErrVersionConflict = errors.New("version conflict")
)

// RequestRepository defines persistence operations for ServiceRequest
type RequestRepository interface {
	Create(ctx context.Context, req *entity.ServiceRequest) error
	GetByID(ctx context.Context, id string) (*entity.ServiceRequest, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.ServiceRequest, error)

	// Update persists the request's workflow state guarded by its Version:
	// the row is only written when the stored version matches, and Version
	// is incremented on success. ErrVersionConflict reports a lost race.
	Update(ctx context.Context, req *entity.ServiceRequest) error
}

// TransitionLogRepository defines persistence operations for the workflow
// transition log, which doubles as the audit sink for the engine
type TransitionLogRepository interface {
	Create(ctx context.Context, rec *entity.WorkflowTransition) error
	GetByRequestID(ctx context.Context, requestID string) ([]*entity.WorkflowTransition, error)
	ListByTenant(ctx context.Context, tenantID string, start, end time.Time) ([]*entity.WorkflowTransition, error)
	MarkDispatched(ctx context.Context, id int64, at time.Time, dispatchErr string) error
}

// NotificationRepository defines persistence operations for queued notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	GetPending(ctx context.Context, limit int) ([]*entity.Notification, error)
	MarkSent(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, errorMsg string) error
}

// TransactionManager executes a function within a database transaction
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
