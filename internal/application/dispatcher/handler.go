package dispatcher

import (
	"context"

	"github.com/deskhive/deskhive/internal/domain/workflow"
)

// Handler executes one action descriptor emitted by the workflow engine.
// The request context identifies which request the action belongs to.
type Handler func(ctx context.Context, wctx workflow.Context, action workflow.ActionDescriptor) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	ActionType  workflow.ActionType
	Handler     Handler
	Description string
}
