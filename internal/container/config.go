// Package container provides dependency injection and lifecycle management
// for the training procurement service.
package container

import (
	"fmt"
	"time"

	"github.com/garyjia/training-procurement/internal/application/workflow"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database DatabaseConfig
	Workflow WorkflowConfig
	Auth     AuthConfig
	Lark     LarkConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir is the path to migration files; empty skips migrations
	MigrationsDir string

	// Startup ping retry
	ConnectAttempts uint
	ConnectDelay    time.Duration
	ConnectMaxDelay time.Duration
}

// WorkflowConfig holds workflow engine switches.
type WorkflowConfig struct {
	// AtomicWrites wraps multi-step operations in one transaction
	AtomicWrites bool

	// AssignmentPolicy is single_active or allow_reassign
	AssignmentPolicy string

	// TrainerDirectPay lets a Pending trainer invoice be paid without approval
	TrainerDirectPay bool

	// ReconcileInterval is how often the reconciliation worker scans; zero disables it
	ReconcileInterval time.Duration
}

// AuthConfig holds session settings.
type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	BcryptCost int
}

// LarkConfig holds Lark settings for operator alerts.
type LarkConfig struct {
	Enabled   bool
	AppID     string
	AppSecret string
	ChatID    string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// DefaultConfig returns a Config with sensible defaults.
// JWTSecret is left empty and must be supplied.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/procurement.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			MigrationsDir:   "migrations",
			ConnectAttempts: 5,
			ConnectDelay:    200 * time.Millisecond,
			ConnectMaxDelay: 5 * time.Second,
		},
		Workflow: WorkflowConfig{
			AtomicWrites:      true,
			AssignmentPolicy:  string(workflow.PolicySingleActive),
			ReconcileInterval: 5 * time.Minute,
		},
		Auth: AuthConfig{
			SessionTTL: 12 * time.Hour,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if !workflow.AssignmentPolicy(c.Workflow.AssignmentPolicy).IsValid() {
		return fmt.Errorf("unknown assignment policy %q", c.Workflow.AssignmentPolicy)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "" || c.Lark.ChatID == "") {
		return fmt.Errorf("lark.app_id, lark.app_secret and lark.chat_id are required when lark is enabled")
	}
	return nil
}
