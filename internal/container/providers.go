package container

import (
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/dispatcher"
	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/application/service"
	"github.com/deskhive/deskhive/internal/domain/workflow"
	"github.com/deskhive/deskhive/internal/infrastructure/notify"
	"github.com/deskhive/deskhive/internal/infrastructure/persistence/repository"
	"github.com/deskhive/deskhive/internal/infrastructure/persistence/sqlite"
	"github.com/deskhive/deskhive/internal/infrastructure/worker"
	"github.com/deskhive/deskhive/internal/report"
	"github.com/deskhive/deskhive/internal/telemetry"
	"github.com/deskhive/deskhive/migrations"
	"github.com/deskhive/deskhive/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the SQLite database, runs pending migrations and
// wraps the connection with the context-aware transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from the transaction manager.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Request:       repository.NewRequestRepository(db, logger),
		TransitionLog: repository.NewTransitionLogRepository(db, logger),
		Notification:  repository.NewNotificationRepository(db, logger),
	}, nil
}

// ProvideEngine builds the workflow engine from the rule configuration.
func ProvideEngine(rules workflow.RuleConfig, logger *zap.Logger) *workflow.Engine {
	return workflow.NewEngine(rules, logger)
}

// ProvideDispatcher creates the action dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(logger)
}

// ServiceDeps carries everything needed to build the service layer.
type ServiceDeps struct {
	Engine     *workflow.Engine
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Telemetry  *telemetry.Metrics
	Logger     *zap.Logger
}

// ProvideServices wires the application services and registers the action
// handlers on the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil || deps.Engine == nil || deps.Dispatcher == nil {
		return nil, fmt.Errorf("engine, repositories and dispatcher are required")
	}

	workflowSvc := service.NewWorkflowService(
		deps.Engine,
		deps.Repos.Request,
		deps.Repos.TransitionLog,
		deps.TxManager,
		deps.Dispatcher,
		deps.Telemetry,
		deps.Logger,
	)
	notificationSvc := service.NewNotificationService(deps.Repos.Notification, deps.Logger)

	service.RegisterActionHandlers(deps.Dispatcher, workflowSvc, notificationSvc, deps.Logger)

	return &ServiceBundle{
		Workflow:     workflowSvc,
		Request:      service.NewRequestService(deps.Repos.Request, workflowSvc, deps.Logger),
		Notification: notificationSvc,
		Metrics:      service.NewMetricsService(deps.Repos.TransitionLog, deps.Logger),
	}, nil
}

// ProvideTelemetry creates a fresh registry with the workflow collectors.
func ProvideTelemetry() (*prometheus.Registry, *telemetry.Metrics) {
	registry := prometheus.NewRegistry()
	return registry, telemetry.New(registry)
}

// ProvideExporter creates the metrics report exporter.
func ProvideExporter(outputDir string, logger *zap.Logger) *report.Exporter {
	return report.NewExporter(outputDir, logger)
}

// WorkerDeps carries dependencies for the background workers.
type WorkerDeps struct {
	Repos     *RepositoryBundle
	Sender    port.NotificationSender
	WorkerCfg *WorkerConfig
	Logger    *zap.Logger
}

// ProvideWorkers builds the worker manager with the notification delivery
// worker registered. The sender defaults to the log-backed implementation.
func ProvideWorkers(deps *WorkerDeps) (*worker.Manager, error) {
	if deps == nil || deps.Repos == nil || deps.WorkerCfg == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}

	sender := deps.Sender
	if sender == nil {
		sender = notify.NewLogSender(deps.Logger)
	}

	manager := worker.NewManager(deps.Logger)
	manager.Register(worker.NewNotificationWorker(
		worker.NotificationWorkerConfig{
			PollInterval: deps.WorkerCfg.NotificationPollInterval,
			BatchSize:    deps.WorkerCfg.NotificationBatchSize,
		},
		deps.Repos.Notification,
		sender,
		deps.Logger,
	))

	return manager, nil
}
