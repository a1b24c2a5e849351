package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/dispatcher"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/domain/workflow"
)

// SystemActor is the actor ID used for automation-driven events
const SystemActor = "system"

// RegisterActionHandlers wires the executors for the action descriptors the
// engine emits. Auto-approve and auto-assign feed events back into the
// workflow; whether they apply is decided by the transition table, so a
// descriptor that arrives too late is rejected there rather than guessed at
// here.
func RegisterActionHandlers(
	d dispatcher.Dispatcher,
	workflowSvc WorkflowService,
	notificationSvc NotificationService,
	logger *zap.Logger,
) {
	d.SubscribeNamed(workflow.ActionAutoApprove, "auto-approver",
		func(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor) error {
			evt := workflow.NewEvent(workflow.EventApprove, SystemActor, map[string]interface{}{
				workflow.KeyApprovedBy: SystemActor,
			})
			result, err := workflowSvc.ProcessEvent(ctx, wctx.RequestID, evt)
			if err != nil {
				return err
			}
			if !result.Success {
				// Not an error: the request may have moved on since the
				// descriptor was emitted.
				logger.Debug("auto-approve no longer applicable",
					zap.String("request_id", wctx.RequestID),
					zap.String("reason", result.Error))
			}
			return nil
		})

	d.SubscribeNamed(workflow.ActionAutoAssign, "auto-assigner",
		func(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor) error {
			assignee, _ := action.Parameters["assign_to"].(string)
			if assignee == "" {
				logger.Warn("auto-assign action without target",
					zap.String("request_id", wctx.RequestID))
				return nil
			}

			evt := workflow.NewEvent(workflow.EventAssign, SystemActor, map[string]interface{}{
				workflow.KeyAssignedTo: assignee,
			})
			result, err := workflowSvc.ProcessEvent(ctx, wctx.RequestID, evt)
			if err != nil {
				return err
			}
			if !result.Success {
				logger.Debug("auto-assign no longer applicable",
					zap.String("request_id", wctx.RequestID),
					zap.String("reason", result.Error))
			}
			return nil
		})

	d.SubscribeNamed(workflow.ActionNotification, "notification-queue",
		func(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor) error {
			return notificationSvc.QueueFromAction(ctx, wctx, action)
		})

	d.SubscribeNamed(workflow.ActionPriorityEscalation, "escalation-notifier",
		func(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor) error {
			if wctx.AssignedTo == "" {
				// Nobody to nudge yet; the manager notice travels with the
				// rule's NOTIFICATION action.
				return nil
			}
			return notificationSvc.Queue(ctx, &entity.Notification{
				RequestID: wctx.RequestID,
				TenantID:  wctx.TenantID,
				Recipient: wctx.AssignedTo,
				Template:  "priority_escalation",
				Payload:   `{"priority":"` + wctx.Priority.String() + `"}`,
				Status:    entity.NotificationPending,
				CreatedAt: time.Now(),
			})
		})
}
