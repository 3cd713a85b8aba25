package container

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/dispatcher"
	"github.com/garyjia/training-procurement/internal/application/handler"
	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/application/service"
	"github.com/garyjia/training-procurement/internal/application/workflow"
	"github.com/garyjia/training-procurement/internal/infrastructure/export"
	infraLark "github.com/garyjia/training-procurement/internal/infrastructure/external/lark"
	"github.com/garyjia/training-procurement/internal/infrastructure/persistence/repository"
	"github.com/garyjia/training-procurement/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/training-procurement/internal/infrastructure/session"
	"github.com/garyjia/training-procurement/internal/infrastructure/worker"
	"github.com/garyjia/training-procurement/pkg/database"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// AuthBundle holds the session store and password hasher.
type AuthBundle struct {
	Sessions port.SessionStore
	Hasher   port.PasswordHasher
}

// ProvideDatabase opens the database, waiting for it to answer, and runs pending migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(ctx, database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectDelay:    cfg.ConnectDelay,
		ConnectMaxDelay: cfg.ConnectMaxDelay,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MigrationsDir != "" {
		if err := database.NewMigrator(db, logger).RunMigrations(cfg.MigrationsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		PurchaseOrders:   repository.NewPurchaseOrderRepository(sqlDB, logger),
		TrainingRequests: repository.NewTrainingRequestRepository(sqlDB, logger),
		Invoices:         repository.NewInvoiceRepository(sqlDB, logger),
		Trainers:         repository.NewTrainerRepository(sqlDB, logger),
		Users:            repository.NewUserRepository(sqlDB, logger),
		History:          repository.NewStatusTransitionRepository(sqlDB, logger),
	}, nil
}

// ProvideAuth creates the JWT session store and bcrypt hasher.
func ProvideAuth(cfg *AuthConfig) (*AuthBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("auth config is required")
	}

	sessions, err := session.NewJWTStore(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	return &AuthBundle{
		Sessions: sessions,
		Hasher:   session.NewBcryptHasher(cfg.BcryptCost),
	}, nil
}

// ProvideAlertSender creates the Lark operator alert sender.
// Returns nil when Lark is disabled.
func ProvideAlertSender(cfg *LarkConfig, logger *zap.Logger) (port.AlertSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if !cfg.Enabled {
		logger.Info("Lark alerts disabled")
		return nil, nil
	}

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
		ChatID:    cfg.ChatID,
	}, logger)
	return infraLark.NewAlertSender(client, cfg.ChatID, logger), nil
}

// ProvideDispatcher creates the event dispatcher and subscribes the audit log
// and, when alerts is non-nil, the operator alert forwarder.
func ProvideDispatcher(alerts port.AlertSender, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	dispatcherLogger := &dispatcherLoggerAdapter{logger: logger}
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(dispatcherLogger))

	handler.NewAuditLog(dispatcherLogger).Register(d)
	if alerts != nil {
		handler.NewOperatorAlerts(alerts, dispatcherLogger).Register(d)
	}
	return d, nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Config     *WorkflowConfig
	Logger     *zap.Logger
}

// WorkflowBundle holds the engine and the unit of work shared by the services.
type WorkflowBundle struct {
	Engine     *workflow.Engine
	UnitOfWork *workflow.UnitOfWork
}

// ProvideWorkflow creates the workflow engine and unit of work.
func ProvideWorkflow(deps *WorkflowDeps) (*WorkflowBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("workflow config is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	engine := workflow.NewEngine(deps.Repos.History,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithAssignmentPolicy(workflow.AssignmentPolicy(deps.Config.AssignmentPolicy)),
		workflow.WithTrainerDirectPay(deps.Config.TrainerDirectPay),
	)

	opts := []workflow.UnitOfWorkOption{
		workflow.WithFailureLogger(&dispatcherLoggerAdapter{logger: deps.Logger}),
		workflow.WithFailureDispatcher(deps.Dispatcher),
	}
	if deps.Config.AtomicWrites {
		if deps.TxManager == nil {
			return nil, fmt.Errorf("transaction manager is required for atomic writes")
		}
		opts = append(opts, workflow.WithAtomicWrites(deps.TxManager))
	}

	deps.Logger.Info("Workflow engine configured",
		zap.String("assignment_policy", deps.Config.AssignmentPolicy),
		zap.Bool("atomic_writes", deps.Config.AtomicWrites),
		zap.Bool("trainer_direct_pay", deps.Config.TrainerDirectPay))

	return &WorkflowBundle{
		Engine:     engine,
		UnitOfWork: workflow.NewUnitOfWork(opts...),
	}, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos    *RepositoryBundle
	Workflow *WorkflowBundle
	Auth     *AuthBundle
	Logger   *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Workflow == nil {
		return nil, fmt.Errorf("workflow is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	r := deps.Repos
	engine, uow := deps.Workflow.Engine, deps.Workflow.UnitOfWork

	invoices := service.NewInvoiceService(
		r.Invoices,
		r.TrainingRequests,
		r.PurchaseOrders,
		r.Trainers,
		export.NewInvoiceLedger(deps.Logger),
		engine,
		uow,
		serviceLogger,
	)

	return &ServiceBundle{
		Auth:           service.NewAuthService(r.Users, deps.Auth.Hasher, deps.Auth.Sessions, serviceLogger),
		PurchaseOrders: service.NewPurchaseOrderService(r.PurchaseOrders, r.Trainers, engine, serviceLogger),
		Assignments:    service.NewAssignmentService(r.PurchaseOrders, r.TrainingRequests, r.Trainers, engine, uow, serviceLogger),
		Invoices:       invoices,
		Trainers:       service.NewTrainerService(r.Trainers, serviceLogger),
		Dashboard:      service.NewDashboardService(r.PurchaseOrders, r.TrainingRequests, r.Trainers, invoices),
	}, nil
}

// WorkerDeps holds dependencies required for creating workers.
type WorkerDeps struct {
	Repos      *RepositoryBundle
	Dispatcher dispatcher.Dispatcher
	Config     *WorkflowConfig
	Logger     *zap.Logger
}

// ProvideWorkers creates the worker manager with the reconciliation worker registered but not started.
// A zero reconcile interval leaves the manager empty.
func ProvideWorkers(deps *WorkerDeps) (*worker.Manager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("workflow config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewManager(deps.Logger)
	if deps.Config.ReconcileInterval <= 0 {
		deps.Logger.Info("Reconciliation worker disabled")
		return manager, nil
	}

	reconciler := workflow.NewReconciler(deps.Repos.PurchaseOrders, deps.Repos.TrainingRequests, deps.Repos.Invoices)
	cfg := worker.DefaultReconciliationConfig()
	cfg.Interval = deps.Config.ReconcileInterval
	manager.Register(worker.NewReconciliationWorker(cfg, reconciler, deps.Dispatcher, deps.Logger))

	return manager, nil
}
