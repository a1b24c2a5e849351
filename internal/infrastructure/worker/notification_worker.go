package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/application/port"
	"go.uber.org/zap"
)

// NotificationWorkerConfig holds configuration for the notification worker
type NotificationWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultNotificationWorkerConfig returns default configuration
func DefaultNotificationWorkerConfig() NotificationWorkerConfig {
	return NotificationWorkerConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    50,
	}
}

// NotificationWorker drains the pending notification queue and delivers
// each entry through the configured sender.
type NotificationWorker struct {
	config NotificationWorkerConfig

	notificationRepo port.NotificationRepository
	sender           port.NotificationSender
	logger           *zap.Logger

	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
	isRunning     bool
	lastProcessed time.Time
	sentCount     int
	failedCount   int
	lastError     error
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	config NotificationWorkerConfig,
	notificationRepo port.NotificationRepository,
	sender port.NotificationSender,
	logger *zap.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		config:           config,
		notificationRepo: notificationRepo,
		sender:           sender,
		logger:           logger,
		lastProcessed:    time.Now(),
	}
}

// Start begins the worker polling loop
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("notification worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("NotificationWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *NotificationWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}

	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("NotificationWorker stopped",
		zap.Int("sent_count", w.sentCount),
		zap.Int("failed_count", w.failedCount))

	return nil
}

// Name returns the worker name for identification
func (w *NotificationWorker) Name() string {
	return "NotificationWorker"
}

func (w *NotificationWorker) pollLoop() {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Poll loop context cancelled")
			return

		case <-ticker.C:
			if err := w.deliverPending(); err != nil {
				w.mu.Lock()
				w.lastError = err
				w.mu.Unlock()
				w.logger.Error("Failed to deliver pending notifications", zap.Error(err))
			}

			w.mu.Lock()
			w.lastProcessed = time.Now()
			w.mu.Unlock()
		}
	}
}

// deliverPending fetches one batch of PENDING notifications and attempts
// delivery. A send failure marks that entry FAILED and moves on; it never
// blocks the rest of the batch.
func (w *NotificationWorker) deliverPending() error {
	ctx := w.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	pending, err := w.notificationRepo.GetPending(ctx, w.config.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending notifications: %w", err)
	}

	for _, n := range pending {
		if err := w.sender.Send(ctx, n); err != nil {
			w.logger.Warn("Notification delivery failed",
				zap.Int64("notification_id", n.ID),
				zap.String("recipient", n.Recipient),
				zap.Error(err))

			if markErr := w.notificationRepo.MarkFailed(ctx, n.ID, err.Error()); markErr != nil {
				w.logger.Error("Failed to mark notification failed",
					zap.Int64("notification_id", n.ID),
					zap.Error(markErr))
			}

			w.mu.Lock()
			w.failedCount++
			w.mu.Unlock()
			continue
		}

		if markErr := w.notificationRepo.MarkSent(ctx, n.ID, time.Now()); markErr != nil {
			w.logger.Error("Failed to mark notification sent",
				zap.Int64("notification_id", n.ID),
				zap.Error(markErr))
			continue
		}

		w.mu.Lock()
		w.sentCount++
		w.mu.Unlock()

		w.logger.Info("Notification delivered",
			zap.Int64("notification_id", n.ID),
			zap.String("recipient", n.Recipient),
			zap.String("template", n.Template))
	}

	return nil
}
