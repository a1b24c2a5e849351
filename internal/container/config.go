// Package container provides dependency injection and lifecycle management
// for the DeskHive workflow service.
package container

import (
	"fmt"
	"time"

	"github.com/deskhive/deskhive/internal/domain/workflow"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Rules configures the workflow rule engine
	Rules workflow.RuleConfig

	// Server configuration
	Server ServerConfig

	// Worker configuration
	Worker WorkerConfig

	// ReportDir is the output directory for metrics report exports
	ReportDir string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host to bind to
	Host string

	// Port to listen on
	Port int

	// ReadTimeout for HTTP server
	ReadTimeout time.Duration

	// WriteTimeout for HTTP server
	WriteTimeout time.Duration
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	// Notification delivery worker settings
	NotificationPollInterval time.Duration
	NotificationBatchSize    int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/deskhive.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Rules: workflow.DefaultRuleConfig(),
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Worker: WorkerConfig{
			NotificationPollInterval: 10 * time.Second,
			NotificationBatchSize:    50,
		},
		ReportDir: "reports",
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Rules.ManagerRole == "" {
		return fmt.Errorf("rules.manager_role is required")
	}
	if c.Worker.NotificationPollInterval <= 0 {
		return fmt.Errorf("worker.notification_poll_interval must be positive")
	}
	if c.Worker.NotificationBatchSize <= 0 {
		return fmt.Errorf("worker.notification_batch_size must be positive")
	}
	return nil
}
