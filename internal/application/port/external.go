package port

import (
	"context"

	"github.com/deskhive/deskhive/internal/domain/entity"
)

// NotificationSender delivers a queued notification through an external
// channel (email, chat, push). Implementations live outside this module.
type NotificationSender interface {
	Send(ctx context.Context, n *entity.Notification) error
}
