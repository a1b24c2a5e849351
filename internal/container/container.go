package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/deskhive/deskhive/internal/application/dispatcher"
	"github.com/deskhive/deskhive/internal/application/port"
	"github.com/deskhive/deskhive/internal/application/service"
	"github.com/deskhive/deskhive/internal/domain/workflow"
	"github.com/deskhive/deskhive/internal/infrastructure/persistence/sqlite"
	"github.com/deskhive/deskhive/internal/infrastructure/worker"
	"github.com/deskhive/deskhive/internal/report"
	"github.com/deskhive/deskhive/internal/telemetry"
)

// Container manages all application dependencies and lifecycle.
// Components initialize in dependency order and tear down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	sqlDB        *sql.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Application
	engine     *workflow.Engine
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Observability and reporting
	registry  *prometheus.Registry
	telemetry *telemetry.Metrics
	exporter  *report.Exporter

	// Workers
	workers *worker.Manager

	// Lifecycle
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Request       port.RequestRepository
	TransitionLog port.TransitionLogRepository
	Notification  port.NotificationRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Workflow     service.WorkflowService
	Request      service.RequestService
	Notification service.NotificationService
	Metrics      service.MetricsService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database and repositories
// 2. Telemetry and report exporter
// 3. Engine, dispatcher and application services
// 4. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.sqlDB = dbBundle.SqlDB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.sqlDB.Close()
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}
	c.repositories = repos
	c.logger.Info("Database initialized")

	c.registry, c.telemetry = ProvideTelemetry()
	c.exporter = ProvideExporter(c.config.ReportDir, c.logger)
	c.logger.Info("Telemetry initialized")

	c.engine = ProvideEngine(c.config.Rules, c.logger)
	c.dispatcher = ProvideDispatcher(c.logger)

	services, err := ProvideServices(&ServiceDeps{
		Engine:     c.engine,
		Repos:      c.repositories,
		TxManager:  c.db,
		Dispatcher: c.dispatcher,
		Telemetry:  c.telemetry,
		Logger:     c.logger,
	})
	if err != nil {
		c.sqlDB.Close()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Workflow engine and services initialized")

	workers, err := ProvideWorkers(&WorkerDeps{
		Repos:     c.repositories,
		WorkerCfg: &c.config.Worker,
		Logger:    c.logger,
	})
	if err != nil {
		c.sqlDB.Close()
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.workers = workers

	if err := c.workers.StartAll(c.ctx); err != nil {
		c.sqlDB.Close()
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	// Let in-flight action dispatches land before the dispatcher closes.
	if c.services != nil && c.services.Workflow != nil {
		c.services.Workflow.Stop()
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		for _, err := range errs {
			c.logger.Error("Shutdown error", zap.Error(err))
		}
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	if c.sqlDB != nil {
		if err := c.sqlDB.Ping(); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["dispatcher"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	if c.workers != nil {
		status.Components["workers"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["workers"] = ComponentHealth{Healthy: false, Message: "not initialized"}
		status.Overall = false
	}

	return status
}

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Engine returns the workflow engine.
func (c *Container) Engine() *workflow.Engine {
	return c.engine
}

// Dispatcher returns the action dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Registry returns the prometheus registry for the scrape endpoint.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Exporter returns the metrics report exporter.
func (c *Container) Exporter() *report.Exporter {
	return c.exporter
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.Manager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
