package config

import (
	"github.com/garyjia/training-procurement/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
			ConnectAttempts: c.Database.ConnectAttempts,
			ConnectDelay:    c.Database.ConnectDelay,
			ConnectMaxDelay: c.Database.ConnectMaxDelay,
		},
		Workflow: container.WorkflowConfig{
			AtomicWrites:      c.Workflow.AtomicWrites,
			AssignmentPolicy:  c.Workflow.AssignmentPolicy,
			TrainerDirectPay:  c.Workflow.TrainerDirectPay,
			ReconcileInterval: c.Workflow.ReconcileInterval,
		},
		Auth: container.AuthConfig{
			JWTSecret:  c.Auth.JWTSecret,
			SessionTTL: c.Auth.SessionTTL,
			BcryptCost: c.Auth.BcryptCost,
		},
		Lark: container.LarkConfig{
			Enabled:   c.Lark.Enabled,
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			ChatID:    c.Lark.ChatID,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			CORSOrigins:  c.Server.CORSOrigins,
		},
	}
}
