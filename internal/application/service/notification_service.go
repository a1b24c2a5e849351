package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/domain/workflow"
)

// NotificationService queues notifications requested by workflow actions.
// Actual delivery is handled by the notification worker through an external
// sender.
type NotificationService interface {
	// QueueFromAction converts a NOTIFICATION descriptor into queued rows,
	// one per recipient
	QueueFromAction(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor) error

	// Queue stores a single notification for later delivery
	Queue(ctx context.Context, n *entity.Notification) error
}

type notificationServiceImpl struct {
	repo   port.NotificationRepository
	logger *zap.Logger
}

// NewNotificationService creates a NotificationService
func NewNotificationService(repo port.NotificationRepository, logger *zap.Logger) NotificationService {
	return &notificationServiceImpl{repo: repo, logger: logger}
}

// QueueFromAction converts a NOTIFICATION descriptor into queued rows
func (s *notificationServiceImpl) QueueFromAction(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor) error {
	if action.Type != workflow.ActionNotification {
		return fmt.Errorf("unexpected action type %s", action.Type)
	}

	recipients := recipientsFromParameters(action.Parameters)
	if len(recipients) == 0 {
		return fmt.Errorf("notification action for request %s has no recipients", wctx.RequestID)
	}

	template, _ := action.Parameters["template"].(string)
	payload, err := json.Marshal(action.Parameters)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	for _, recipient := range recipients {
		n := &entity.Notification{
			RequestID: wctx.RequestID,
			TenantID:  wctx.TenantID,
			Recipient: recipient,
			Template:  template,
			Payload:   string(payload),
			Status:    entity.NotificationPending,
			CreatedAt: time.Now(),
		}
		if err := s.repo.Create(ctx, n); err != nil {
			return fmt.Errorf("queue notification for %s: %w", recipient, err)
		}
	}

	s.logger.Info("notifications queued",
		zap.String("request_id", wctx.RequestID),
		zap.String("template", template),
		zap.Int("recipients", len(recipients)))

	return nil
}

// Queue stores a single notification for later delivery
func (s *notificationServiceImpl) Queue(ctx context.Context, n *entity.Notification) error {
	if n.Status == "" {
		n.Status = entity.NotificationPending
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return s.repo.Create(ctx, n)
}

// recipientsFromParameters accepts both the single "recipient" form and the
// "recipients" list form emitted by different rules
func recipientsFromParameters(params map[string]interface{}) []string {
	var out []string

	if single, ok := params["recipient"].(string); ok && single != "" {
		out = append(out, single)
	}

	switch list := params["recipients"].(type) {
	case []string:
		out = append(out, list...)
	case []interface{}:
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}

	return out
}
