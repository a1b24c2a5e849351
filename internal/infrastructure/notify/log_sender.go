// Package notify provides in-tree NotificationSender implementations.
package notify

import (
	"context"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"go.uber.org/zap"
)

// LogSender writes each notification to the structured log instead of an
// external channel. It is the default sender for deployments that have not
// wired a real delivery integration.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed notification sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send records the notification and reports success
func (s *LogSender) Send(_ context.Context, n *entity.Notification) error {
	s.logger.Info("notification",
		zap.String("tenant_id", n.TenantID),
		zap.String("request_id", n.RequestID),
		zap.String("recipient", n.Recipient),
		zap.String("template", n.Template),
		zap.String("payload", n.Payload))
	return nil
}

var _ port.NotificationSender = (*LogSender)(nil)
