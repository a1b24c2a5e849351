package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/domain/entity"
	"github.com/deskhive/deskhive/internal/infrastructure/persistence/sqlite"
	"github.com/deskhive/deskhive/migrations"
	"github.com/deskhive/deskhive/pkg/database"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(migrations.FS))

	return sqlite.NewDB(db.DB, logger)
}

func newRequest(id string) *entity.ServiceRequest {
	now := time.Now().UTC().Truncate(time.Second)
	return &entity.ServiceRequest{
		ID:          id,
		TenantID:    "tenant-1",
		ServiceID:   "svc-printing",
		RequesterID: "member-7",
		Title:       "Poster prints",
		Status:      "PENDING",
		Priority:    "NORMAL",
		Metadata:    `{"total_amount":42.5}`,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRequestRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	req := newRequest("req-1")
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status)
	assert.Equal(t, int64(0), got.Version)
	assert.Equal(t, `{"total_amount":42.5}`, got.Metadata)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestRequestRepository_UpdateVersionGuard(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRequest("req-1")))

	first, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)

	first.Status = "APPROVED"
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	// The second copy still carries version 0 and must lose the race.
	second.Status = "CANCELLED"
	err = repo.Update(ctx, second)
	assert.ErrorIs(t, err, port.ErrVersionConflict)

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", got.Status)
	assert.Equal(t, int64(1), got.Version)
}

func TestRequestRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	a := newRequest("req-a")
	a.CreatedAt = a.CreatedAt.Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, newRequest("req-b")))

	other := newRequest("req-c")
	other.TenantID = "tenant-2"
	require.NoError(t, repo.Create(ctx, other))

	got, err := repo.List(ctx, "tenant-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "req-b", got[0].ID, "newest first")
}

func TestTransitionLogRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	reqRepo := NewRequestRepository(db, zap.NewNop())
	logRepo := NewTransitionLogRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, reqRepo.Create(ctx, newRequest("req-1")))

	rec := &entity.WorkflowTransition{
		RequestID:   "req-1",
		TenantID:    "tenant-1",
		FromStatus:  "PENDING",
		ToStatus:    "APPROVED",
		EventType:   "SUBMIT",
		ActorID:     "member-7",
		Success:     true,
		RuleNames:   `["auto-approve-low-value"]`,
		ActionCount: 1,
		Timestamp:   time.Now().UTC(),
	}
	require.NoError(t, logRepo.Create(ctx, rec))
	require.NotZero(t, rec.ID)

	history, err := logRepo.GetByRequestID(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "APPROVED", history[0].ToStatus)
	assert.Nil(t, history[0].DispatchedAt)

	at := time.Now().UTC()
	require.NoError(t, logRepo.MarkDispatched(ctx, rec.ID, at, ""))

	history, err = logRepo.GetByRequestID(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, history[0].DispatchedAt)
	assert.Empty(t, history[0].DispatchError)
}

func TestTransitionLogRepository_ListByTenantWindow(t *testing.T) {
	db := newTestDB(t)
	reqRepo := NewRequestRepository(db, zap.NewNop())
	logRepo := NewTransitionLogRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, reqRepo.Create(ctx, newRequest("req-1")))

	base := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	for i, ts := range []time.Time{base.Add(-48 * time.Hour), base, base.Add(48 * time.Hour)} {
		rec := &entity.WorkflowTransition{
			RequestID:  "req-1",
			TenantID:   "tenant-1",
			FromStatus: "PENDING",
			ToStatus:   "APPROVED",
			EventType:  "SUBMIT",
			ActorID:    "member-7",
			Success:    i%2 == 0,
			Timestamp:  ts,
		}
		require.NoError(t, logRepo.Create(ctx, rec))
	}

	rows, err := logRepo.ListByTenant(ctx, "tenant-1",
		base.Add(-24*time.Hour), base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, base, rows[0].Timestamp.UTC())
}

func TestNotificationRepository_DeliveryLifecycle(t *testing.T) {
	db := newTestDB(t)
	reqRepo := NewRequestRepository(db, zap.NewNop())
	repo := NewNotificationRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, reqRepo.Create(ctx, newRequest("req-1")))

	n := &entity.Notification{
		RequestID: "req-1",
		TenantID:  "tenant-1",
		Recipient: "space-manager",
		Template:  "urgent_request_escalation",
		Payload:   `{"request_id":"req-1"}`,
		Status:    entity.NotificationPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, n))
	require.NotZero(t, n.ID)

	pending, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.MarkSent(ctx, n.ID, time.Now().UTC()))

	pending, err = repo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestNotificationRepository_MarkFailed(t *testing.T) {
	db := newTestDB(t)
	reqRepo := NewRequestRepository(db, zap.NewNop())
	repo := NewNotificationRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, reqRepo.Create(ctx, newRequest("req-1")))

	n := &entity.Notification{
		RequestID: "req-1",
		TenantID:  "tenant-1",
		Recipient: "facilities",
		Template:  "delivery_overdue",
		Payload:   `{}`,
		Status:    entity.NotificationPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, n))

	require.NoError(t, repo.MarkFailed(ctx, n.ID, "channel unreachable"))

	pending, err := repo.GetPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
