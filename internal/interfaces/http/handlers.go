package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/application/service"
	"github.com/deskhive/deskhive/internal/domain/workflow"
	"github.com/deskhive/deskhive/internal/report"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	requestSvc  service.RequestService
	workflowSvc service.WorkflowService
	metricsSvc  service.MetricsService
	exporter    *report.Exporter
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	requestSvc service.RequestService,
	workflowSvc service.WorkflowService,
	metricsSvc service.MetricsService,
	exporter *report.Exporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		requestSvc:  requestSvc,
		workflowSvc: workflowSvc,
		metricsSvc:  metricsSvc,
		exporter:    exporter,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ProcessEventRequest is the body of POST /api/requests/:id/events
type ProcessEventRequest struct {
	EventType string                 `json:"event_type" binding:"required"`
	ActorID   string                 `json:"actor_id" binding:"required"`
	Data      map[string]interface{} `json:"data"`
}

// ListRequestsQuery represents query parameters for listing requests
type ListRequestsQuery struct {
	TenantID string `form:"tenant_id" binding:"required"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// MetricsQuery represents the reporting period query parameters
type MetricsQuery struct {
	Start string `form:"start"`
	End   string `form:"end"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitRequest handles POST /api/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var input service.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	req, result, err := h.requestSvc.Submit(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("Failed to submit request", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: gin.H{
			"request": req,
			"result":  result,
		},
	})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var q ListRequestsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "tenant_id is required"})
		return
	}

	requests, err := h.requestSvc.List(c.Request.Context(), q.TenantID, q.Limit, q.Offset)
	if err != nil {
		h.logger.Error("Failed to list requests", "tenant_id", q.TenantID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to retrieve requests"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.requestSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// GetHistory handles GET /api/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	history, err := h.workflowSvc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: history})
}

// GetAvailableActions handles GET /api/requests/:id/actions
func (h *Handlers) GetAvailableActions(c *gin.Context) {
	actorID := c.Query("actor_id")
	if actorID == "" {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "actor_id is required"})
		return
	}

	actions, err := h.workflowSvc.AvailableActions(c.Request.Context(), c.Param("id"), actorID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: actions})
}

// ProcessEvent handles POST /api/requests/:id/events. A workflow rejection
// is a successful HTTP exchange; the outcome travels in the result body.
func (h *Handlers) ProcessEvent(c *gin.Context) {
	var body ProcessEventRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "event_type and actor_id are required"})
		return
	}

	evtType := workflow.EventType(body.EventType)
	if !evtType.IsValid() {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown event type"})
		return
	}

	evt := workflow.NewEvent(evtType, body.ActorID, body.Data)
	result, err := h.workflowSvc.ProcessEvent(c.Request.Context(), c.Param("id"), evt)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ValidateTransition handles GET /api/workflow/validate
func (h *Handlers) ValidateTransition(c *gin.Context) {
	status := workflow.Status(c.Query("from"))
	evtType := workflow.EventType(c.Query("event"))

	validation := h.workflowSvc.ValidateTransition(status, evtType)
	c.JSON(http.StatusOK, Response{Success: true, Data: validation})
}

// GetWorkflowMetrics handles GET /api/tenants/:tenant_id/metrics
func (h *Handlers) GetWorkflowMetrics(c *gin.Context) {
	metrics, ok := h.loadMetrics(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: metrics})
}

// ExportWorkflowMetrics handles POST /api/tenants/:tenant_id/metrics/export
func (h *Handlers) ExportWorkflowMetrics(c *gin.Context) {
	metrics, ok := h.loadMetrics(c)
	if !ok {
		return
	}

	path, err := h.exporter.Export(metrics)
	if err != nil {
		h.logger.Error("Failed to export metrics report", "tenant_id", metrics.TenantID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "failed to export report"})
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"report_path": path}})
}

func (h *Handlers) loadMetrics(c *gin.Context) (*workflow.Metrics, bool) {
	tenantID := c.Param("tenant_id")

	var q MetricsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return nil, false
	}

	end := time.Now().UTC()
	start := end.AddDate(0, -1, 0)

	if q.Start != "" {
		parsed, err := time.Parse(time.RFC3339, q.Start)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "start must be RFC3339"})
			return nil, false
		}
		start = parsed
	}
	if q.End != "" {
		parsed, err := time.Parse(time.RFC3339, q.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "end must be RFC3339"})
			return nil, false
		}
		end = parsed
	}

	metrics, err := h.metricsSvc.GetWorkflowMetrics(c.Request.Context(), tenantID, start, end)
	if err != nil {
		h.logger.Error("Failed to compute workflow metrics", "tenant_id", tenantID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: err.Error()})
		return nil, false
	}

	return metrics, true
}

func (h *Handlers) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, port.ErrNotFound) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "request not found"})
		return
	}

	h.logger.Error("Request lookup failed", "error", err)
	c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
}
