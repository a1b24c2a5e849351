package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/infrastructure/persistence/sqlite"
)

// RequestRepository implements port.RequestRepository on sqlite
type RequestRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sqlite.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new service request
func (r *RequestRepository) Create(ctx context.Context, req *entity.ServiceRequest) error {
	query := `
		INSERT INTO service_requests (
			id, tenant_id, service_id, requester_id, title, status, priority,
			requires_approval, assigned_to, approved_by, metadata, version,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		req.ID,
		req.TenantID,
		req.ServiceID,
		req.RequesterID,
		req.Title,
		req.Status,
		req.Priority,
		req.RequiresApproval,
		req.AssignedTo,
		req.ApprovedBy,
		req.Metadata,
		req.Version,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create service request", zap.String("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves a service request by its ID
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.ServiceRequest, error) {
	query := `
		SELECT id, tenant_id, service_id, requester_id, title, status, priority,
			requires_approval, assigned_to, approved_by, metadata, version,
			completed_at, created_at, updated_at
		FROM service_requests
		WHERE id = ?
	`

	var req entity.ServiceRequest
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.TenantID,
		&req.ServiceID,
		&req.RequesterID,
		&req.Title,
		&req.Status,
		&req.Priority,
		&req.RequiresApproval,
		&req.AssignedTo,
		&req.ApprovedBy,
		&req.Metadata,
		&req.Version,
		&req.CompletedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request %s: %w", id, port.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get service request", zap.String("request_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return &req, nil
}

// List retrieves a page of a tenant's requests, newest first
func (r *RequestRepository) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.ServiceRequest, error) {
	query := `
		SELECT id, tenant_id, service_id, requester_id, title, status, priority,
			requires_approval, assigned_to, approved_by, metadata, version,
			completed_at, created_at, updated_at
		FROM service_requests
		WHERE tenant_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, tenantID, limit, offset)
	if err != nil {
		r.logger.Error("failed to list service requests", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.ServiceRequest
	for rows.Next() {
		var req entity.ServiceRequest
		err := rows.Scan(
			&req.ID,
			&req.TenantID,
			&req.ServiceID,
			&req.RequesterID,
			&req.Title,
			&req.Status,
			&req.Priority,
			&req.RequiresApproval,
			&req.AssignedTo,
			&req.ApprovedBy,
			&req.Metadata,
			&req.Version,
			&req.CompletedAt,
			&req.CreatedAt,
			&req.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// Update persists workflow state changes guarded by the optimistic version.
// The request's Version is incremented on success.
func (r *RequestRepository) Update(ctx context.Context, req *entity.ServiceRequest) error {
	query := `
		UPDATE service_requests
		SET status = ?, priority = ?, assigned_to = ?, approved_by = ?,
			metadata = ?, completed_at = ?, updated_at = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		req.Status,
		req.Priority,
		req.AssignedTo,
		req.ApprovedBy,
		req.Metadata,
		req.CompletedAt,
		req.UpdatedAt,
		req.ID,
		req.Version,
	)
	if err != nil {
		r.logger.Error("failed to update service request", zap.String("request_id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("request %s at version %d: %w", req.ID, req.Version, port.ErrVersionConflict)
	}

	req.Version++
	return nil
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
