package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository on sqlite
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

// Create queues a notification
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notifications (
			request_id, tenant_id, recipient, template, payload, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		n.RequestID,
		n.TenantID,
		n.Recipient,
		n.Template,
		n.Payload,
		n.Status,
		n.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create notification", zap.String("request_id", n.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// GetPending retrieves queued notifications awaiting delivery, oldest first
func (r *NotificationRepository) GetPending(ctx context.Context, limit int) ([]*entity.Notification, error) {
	query := `
		SELECT id, request_id, tenant_id, recipient, template, payload, status,
			error_message, sent_at, created_at
		FROM notifications
		WHERE status = ?
		ORDER BY created_at ASC
		LIMIT ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, entity.NotificationPending, limit)
	if err != nil {
		r.logger.Error("failed to get pending notifications", zap.Error(err))
		return nil, fmt.Errorf("failed to get pending notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		err := rows.Scan(
			&n.ID,
			&n.RequestID,
			&n.TenantID,
			&n.Recipient,
			&n.Template,
			&n.Payload,
			&n.Status,
			&n.ErrorMessage,
			&n.SentAt,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkSent records a successful delivery
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE notifications SET status = ?, sent_at = ?, error_message = '' WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationSent, at, id)
	if err != nil {
		r.logger.Error("failed to mark notification sent", zap.Int64("notification_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark sent: %w", err)
	}

	return nil
}

// MarkFailed records a delivery failure
func (r *NotificationRepository) MarkFailed(ctx context.Context, id int64, errorMsg string) error {
	query := `UPDATE notifications SET status = ?, error_message = ? WHERE id = ?`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query, entity.NotificationFailed, errorMsg, id)
	if err != nil {
		r.logger.Error("failed to mark notification failed", zap.Int64("notification_id", id), zap.Error(err))
		return fmt.Errorf("failed to mark failed: %w", err)
	}

	return nil
}

// Verify interface compliance
var _ port.NotificationRepository = (*NotificationRepository)(nil)
