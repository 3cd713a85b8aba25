package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/training-procurement/internal/application/dispatcher"
	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/event"
	"github.com/garyjia/training-procurement/internal/metrics"
)

// Step is one write of a multi-entity operation
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// PartialFailureError reports a multi-step operation that stopped after
// committing some of its writes. Nothing is rolled back.
type PartialFailureError struct {
	Operation string
	Completed []string
	Failed    string
	Cause     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s partially applied: completed [%s], failed at %s: %v",
		e.Operation, strings.Join(e.Completed, ", "), e.Failed, e.Cause)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Cause
}

// UnitOfWork runs the steps of one operation in order.
// In atomic mode the steps share a database transaction and a failure rolls
// everything back. Otherwise each step commits on its own and a failure after
// the first step yields a PartialFailureError.
type UnitOfWork struct {
	txManager  port.TransactionManager
	atomic     bool
	logger     dispatcher.Logger
	dispatcher dispatcher.Dispatcher
}

// UnitOfWorkOption configures a UnitOfWork
type UnitOfWorkOption func(*UnitOfWork)

// WithAtomicWrites enables transactional execution through txManager
func WithAtomicWrites(txManager port.TransactionManager) UnitOfWorkOption {
	return func(u *UnitOfWork) {
		u.txManager = txManager
		u.atomic = txManager != nil
	}
}

// WithFailureLogger sets the logger used to report partial failures
func WithFailureLogger(logger dispatcher.Logger) UnitOfWorkOption {
	return func(u *UnitOfWork) {
		u.logger = logger
	}
}

// WithFailureDispatcher publishes partial failures as domain events
func WithFailureDispatcher(d dispatcher.Dispatcher) UnitOfWorkOption {
	return func(u *UnitOfWork) {
		u.dispatcher = d
	}
}

// NewUnitOfWork creates a sequential (non-atomic) unit of work unless configured otherwise
func NewUnitOfWork(opts ...UnitOfWorkOption) *UnitOfWork {
	u := &UnitOfWork{}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Atomic reports whether steps run inside one transaction
func (u *UnitOfWork) Atomic() bool { return u.atomic }

// Execute runs steps in order. entityType/entityID identify the root entity for reporting.
func (u *UnitOfWork) Execute(ctx context.Context, operation, entityType string, entityID int64, steps ...Step) error {
	if u.atomic {
		return u.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			for _, step := range steps {
				if err := step.Run(txCtx); err != nil {
					return fmt.Errorf("%s: %s: %w", operation, step.Name, err)
				}
			}
			return nil
		})
	}

	completed := make([]string, 0, len(steps))
	for _, step := range steps {
		err := ctx.Err()
		if err == nil {
			err = step.Run(ctx)
		}
		if err == nil {
			completed = append(completed, step.Name)
			continue
		}

		if len(completed) == 0 {
			return fmt.Errorf("%s: %s: %w", operation, step.Name, err)
		}

		pf := &PartialFailureError{
			Operation: operation,
			Completed: completed,
			Failed:    step.Name,
			Cause:     err,
		}
		u.report(ctx, pf, entityType, entityID)
		return pf
	}
	return nil
}

func (u *UnitOfWork) report(ctx context.Context, pf *PartialFailureError, entityType string, entityID int64) {
	metrics.PartialFailures.WithLabelValues(pf.Operation).Inc()

	if u.logger != nil {
		u.logger.Error("Partial failure, store left inconsistent",
			"operation", pf.Operation,
			"entity_type", entityType,
			"entity_id", entityID,
			"completed", pf.Completed,
			"failed_step", pf.Failed,
			"error", pf.Cause,
		)
	}

	if u.dispatcher != nil {
		u.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypePartialFailure, entityType, entityID, map[string]interface{}{
			"operation":   pf.Operation,
			"completed":   strings.Join(pf.Completed, ","),
			"failed_step": pf.Failed,
			"error":       pf.Cause.Error(),
		}))
	}
}
