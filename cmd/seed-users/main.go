package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/config"
	"github.com/garyjia/training-procurement/internal/container"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/pkg/utils"
)

type seedUser struct {
	username string
	name     string
	role     entity.Role
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	password := flag.String("password", "", "password for every seeded account (min 8 chars)")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "Usage: seed-users -password <password> [-config configs/config.yaml]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	containerCfg := cfg.ToContainerConfig()
	containerCfg.Workflow.ReconcileInterval = 0
	containerCfg.Lark.Enabled = false

	c, err := container.NewContainer(containerCfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer c.Close()

	users := []seedUser{
		{username: "admin", name: "Administrator", role: entity.RoleAdmin},
		{username: "client", name: "Demo Client", role: entity.RoleClient},
		{username: "trainer", name: "Demo Trainer", role: entity.RoleTrainer},
	}

	auth := c.Services().Auth
	for _, u := range users {
		created, err := auth.Register(ctx, u.username, *password, u.name, u.role)
		var verr *entity.ValidationError
		if errors.As(err, &verr) && verr.Fields["username"] == "is already taken" {
			fmt.Printf("  skip %-8s already exists\n", u.username)
			continue
		}
		if err != nil {
			logger.Fatal("Failed to seed user", zap.String("username", u.username), zap.Error(err))
		}
		fmt.Printf("  created %-8s id=%d role=%s\n", created.Username, created.ID, created.Role)
	}
}
