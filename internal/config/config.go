package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Workflow     WorkflowConfig     `mapstructure:"workflow"`
	Notification NotificationConfig `mapstructure:"notification"`
	Report       ReportConfig       `mapstructure:"report"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// WorkflowConfig holds the thresholds and routing table the rule engine
// is built from.
type WorkflowConfig struct {
	AutoApproveLimit  float64           `mapstructure:"auto_approve_limit"`
	EscalationAfter   time.Duration     `mapstructure:"escalation_after"`
	CategoryAssignees map[string]string `mapstructure:"category_assignees"`
	ManagerRole       string            `mapstructure:"manager_role"`
}

// NotificationConfig holds the delivery worker configuration
type NotificationConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

// ReportConfig holds metrics report export configuration
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/deskhive.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Workflow defaults
	viper.SetDefault("workflow.auto_approve_limit", 100.0)
	viper.SetDefault("workflow.escalation_after", 4*time.Hour)
	viper.SetDefault("workflow.manager_role", "space-manager")
	viper.SetDefault("workflow.category_assignees", map[string]string{
		"PRINTING":    "facilities",
		"CATERING":    "catering",
		"IT_SUPPORT":  "it-support",
		"MAINTENANCE": "facilities",
	})

	// Notification worker defaults
	viper.SetDefault("notification.poll_interval", 10*time.Second)
	viper.SetDefault("notification.batch_size", 50)

	// Report defaults
	viper.SetDefault("report.output_dir", "reports")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("database.path", "DESKHIVE_DB_PATH")
	viper.BindEnv("server.port", "DESKHIVE_PORT")
	viper.BindEnv("logger.level", "DESKHIVE_LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workflow.AutoApproveLimit < 0 {
		return fmt.Errorf("workflow.auto_approve_limit must not be negative")
	}
	if c.Workflow.EscalationAfter <= 0 {
		return fmt.Errorf("workflow.escalation_after must be positive")
	}
	if c.Workflow.ManagerRole == "" {
		return fmt.Errorf("workflow.manager_role is required")
	}
	if c.Notification.PollInterval <= 0 {
		return fmt.Errorf("notification.poll_interval must be positive")
	}
	if c.Notification.BatchSize <= 0 {
		return fmt.Errorf("notification.batch_size must be positive")
	}
	return nil
}
