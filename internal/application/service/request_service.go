package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/domain/workflow"
	"github.com/deskhive/deskhive/pkg/utils"
)

// SubmitRequestInput carries the fields needed to open a service request
type SubmitRequestInput struct {
	TenantID         string                 `json:"tenant_id"`
	ServiceID        string                 `json:"service_id"`
	RequesterID      string                 `json:"requester_id"`
	Title            string                 `json:"title"`
	Priority         string                 `json:"priority"`
	RequiresApproval bool                   `json:"requires_approval"`
	Metadata         map[string]interface{} `json:"metadata"`
}

// RequestService manages service request records
type RequestService interface {
	// Submit creates a request in PENDING and immediately runs the SUBMIT
	// event through the workflow
	Submit(ctx context.Context, input SubmitRequestInput) (*entity.ServiceRequest, workflow.Result, error)

	Get(ctx context.Context, id string) (*entity.ServiceRequest, error)
	List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.ServiceRequest, error)
}

type requestServiceImpl struct {
	requestRepo port.RequestRepository
	workflowSvc WorkflowService
	logger      *zap.Logger
}

// NewRequestService creates a RequestService
func NewRequestService(requestRepo port.RequestRepository, workflowSvc WorkflowService, logger *zap.Logger) RequestService {
	return &requestServiceImpl{
		requestRepo: requestRepo,
		workflowSvc: workflowSvc,
		logger:      logger,
	}
}

// Submit creates a request and processes its SUBMIT event
func (s *requestServiceImpl) Submit(ctx context.Context, input SubmitRequestInput) (*entity.ServiceRequest, workflow.Result, error) {
	if input.TenantID == "" || input.RequesterID == "" {
		return nil, workflow.Result{}, fmt.Errorf("tenant_id and requester_id are required")
	}
	if err := utils.ValidateIdentifier(input.TenantID); err != nil {
		return nil, workflow.Result{}, fmt.Errorf("tenant_id: %w", err)
	}
	if err := utils.ValidateIdentifier(input.RequesterID); err != nil {
		return nil, workflow.Result{}, fmt.Errorf("requester_id: %w", err)
	}
	if amount, ok := input.Metadata[workflow.MetaTotalAmount].(float64); ok {
		if err := utils.ValidateAmount(amount); err != nil {
			return nil, workflow.Result{}, err
		}
	}
	input.Title = utils.SanitizeString(input.Title)

	priority := workflow.Priority(input.Priority)
	if input.Priority == "" {
		priority = workflow.PriorityNormal
	}
	if !priority.IsValid() {
		return nil, workflow.Result{}, fmt.Errorf("invalid priority %q", input.Priority)
	}

	now := time.Now()
	metadata := make(map[string]interface{}, len(input.Metadata)+1)
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	if _, ok := metadata[workflow.MetaCreatedAt]; !ok {
		metadata[workflow.MetaCreatedAt] = now.Format(time.RFC3339)
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, workflow.Result{}, fmt.Errorf("marshal metadata: %w", err)
	}

	req := &entity.ServiceRequest{
		ID:               uuid.NewString(),
		TenantID:         input.TenantID,
		ServiceID:        input.ServiceID,
		RequesterID:      input.RequesterID,
		Title:            input.Title,
		Status:           workflow.StatusPending.String(),
		Priority:         priority.String(),
		RequiresApproval: input.RequiresApproval,
		Metadata:         string(encoded),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, workflow.Result{}, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info("service request created",
		zap.String("request_id", req.ID),
		zap.String("tenant_id", req.TenantID),
		zap.String("requester_id", req.RequesterID))

	result, err := s.workflowSvc.ProcessEvent(ctx, req.ID, workflow.NewEvent(workflow.EventSubmit, input.RequesterID, nil))
	if err != nil {
		return nil, workflow.Result{}, err
	}

	// Re-read so the caller sees the post-SUBMIT state.
	updated, err := s.requestRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, workflow.Result{}, err
	}

	return updated, result, nil
}

// Get retrieves a request by ID
func (s *requestServiceImpl) Get(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

// List retrieves a page of a tenant's requests
func (s *requestServiceImpl) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.ServiceRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.requestRepo.List(ctx, tenantID, limit, offset)
}
