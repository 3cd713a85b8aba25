package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/application/workflow"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	domainwf "github.com/garyjia/training-procurement/internal/domain/workflow"
	"github.com/garyjia/training-procurement/internal/metrics"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// requireRole returns ErrForbidden unless the identity has one of roles
func requireRole(identity entity.Identity, roles ...entity.Role) error {
	for _, r := range roles {
		if identity.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q cannot perform this operation", entity.ErrForbidden, identity.Role)
}

// load fetches one record and converts a missing row into a NotFoundError
func load[T any](ctx context.Context, kind string, id int64, get func(context.Context, int64) (*T, error)) (*T, error) {
	rec, err := get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %s %d: %w", kind, id, err)
	}
	if rec == nil {
		return nil, &entity.NotFoundError{Kind: kind, ID: id}
	}
	return rec, nil
}

// callerTrainer resolves the trainer profile of a trainer identity
func callerTrainer(ctx context.Context, trainers port.TrainerRepository, identity entity.Identity) (*entity.Trainer, error) {
	if err := requireRole(identity, entity.RoleTrainer); err != nil {
		return nil, err
	}
	trainer, err := trainers.GetByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("load trainer profile for user %d: %w", identity.UserID, err)
	}
	if trainer == nil {
		return nil, &entity.NotFoundError{Kind: "trainer", ID: identity.UserID}
	}
	return trainer, nil
}

// observe counts an operation outcome. Caller mistakes count as rejected, the rest as failed.
func observe(operation string, err error) {
	metrics.WorkflowOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func outcome(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}

	var (
		verr *entity.ValidationError
		nerr *entity.NotFoundError
		derr *entity.DuplicateSubmissionError
	)
	switch {
	case errors.As(err, &verr),
		errors.As(err, &nerr),
		errors.As(err, &derr),
		errors.Is(err, entity.ErrForbidden),
		errors.Is(err, domainwf.ErrInvalidTransition),
		errors.Is(err, domainwf.ErrGuardFailed):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}

// ptr returns a pointer to v
func ptr[T any](v T) *T {
	return &v
}

// uow is the subset of workflow.UnitOfWork the services use
type uow interface {
	Execute(ctx context.Context, operation, entityType string, entityID int64, steps ...workflow.Step) error
}
