package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/infrastructure/persistence/sqlite"
)

// TransitionLogRepository implements port.TransitionLogRepository on sqlite
type TransitionLogRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewTransitionLogRepository creates a new transition log repository
func NewTransitionLogRepository(db *sqlite.DB, logger *zap.Logger) port.TransitionLogRepository {
	return &TransitionLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a transition record
func (r *TransitionLogRepository) Create(ctx context.Context, rec *entity.WorkflowTransition) error {
	query := `
		INSERT INTO workflow_transitions (
			request_id, tenant_id, from_status, to_status, event_type, actor_id,
			success, error, rule_names, action_count, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		rec.RequestID,
		rec.TenantID,
		rec.FromStatus,
		rec.ToStatus,
		rec.EventType,
		rec.ActorID,
		rec.Success,
		rec.Error,
		rec.RuleNames,
		rec.ActionCount,
		rec.Timestamp,
	)
	if err != nil {
		r.logger.Error("failed to create transition record", zap.String("request_id", rec.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create transition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// GetByRequestID retrieves all transition records for a request, oldest first
func (r *TransitionLogRepository) GetByRequestID(ctx context.Context, requestID string) ([]*entity.WorkflowTransition, error) {
	query := `
		SELECT id, request_id, tenant_id, from_status, to_status, event_type, actor_id,
			success, error, rule_names, action_count, dispatched_at, dispatch_error, timestamp
		FROM workflow_transitions
		WHERE request_id = ?
		ORDER BY timestamp ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("failed to get transitions by request", zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to get transitions: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

// ListByTenant retrieves a tenant's transition records within a period
func (r *TransitionLogRepository) ListByTenant(ctx context.Context, tenantID string, start, end time.Time) ([]*entity.WorkflowTransition, error) {
	query := `
		SELECT id, request_id, tenant_id, from_status, to_status, event_type, actor_id,
			success, error, rule_names, action_count, dispatched_at, dispatch_error, timestamp
		FROM workflow_transitions
		WHERE tenant_id = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY request_id, timestamp ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, tenantID, start, end)
	if err != nil {
		r.logger.Error("failed to list transitions", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	return scanTransitions(rows)
}

// MarkDispatched records the outcome of dispatching a transition's actions
func (r *TransitionLogRepository) MarkDispatched(ctx context.Context, id int64, at time.Time, dispatchErr string) error {
	query := `UPDATE workflow_transitions SET dispatched_at = ?, dispatch_error = ? WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, at, dispatchErr, id)
	if err != nil {
		r.logger.Error("failed to mark transition dispatched", zap.Int64("transition_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark dispatched: %w", err)
	}

	return nil
}

func scanTransitions(rows *sql.Rows) ([]*entity.WorkflowTransition, error) {
	var records []*entity.WorkflowTransition
	for rows.Next() {
		var rec entity.WorkflowTransition
		err := rows.Scan(
			&rec.ID,
			&rec.RequestID,
			&rec.TenantID,
			&rec.FromStatus,
			&rec.ToStatus,
			&rec.EventType,
			&rec.ActorID,
			&rec.Success,
			&rec.Error,
			&rec.RuleNames,
			&rec.ActionCount,
			&rec.DispatchedAt,
			&rec.DispatchError,
			&rec.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.TransitionLogRepository = (*TransitionLogRepository)(nil)
