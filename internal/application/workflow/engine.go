package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/training-procurement/internal/application/dispatcher"
	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/domain/event"
	domainwf "github.com/garyjia/training-procurement/internal/domain/workflow"
)

// Engine resolves status transitions against the per-entity tables,
// writes the status history, and publishes domain events.
type Engine struct {
	history    port.StatusTransitionRepository
	dispatcher dispatcher.Dispatcher
	policy     AssignmentPolicy
	directPay  bool
	now        func() time.Time
}

// EngineOption configures the workflow engine
type EngineOption func(*Engine)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithAssignmentPolicy overrides the default single_active policy
func WithAssignmentPolicy(p AssignmentPolicy) EngineOption {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithTrainerDirectPay lets trainer invoices be paid without approval
func WithTrainerDirectPay(enabled bool) EngineOption {
	return func(e *Engine) {
		e.directPay = enabled
	}
}

// WithClock sets the time source used for history rows and timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new workflow engine
func NewEngine(history port.StatusTransitionRepository, opts ...EngineOption) *Engine {
	e := &Engine{
		history: history,
		policy:  PolicySingleActive,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the configured assignment policy
func (e *Engine) Policy() AssignmentPolicy { return e.policy }

// Now returns the engine clock's current time
func (e *Engine) Now() time.Time { return e.now() }

// NextPOStatus returns the status a PO moves to when trigger fires from from
func (e *Engine) NextPOStatus(ctx context.Context, from entity.POStatus, trigger domainwf.Trigger) (entity.POStatus, error) {
	m, err := BuildPurchaseOrderStateMachine(from, e.policy)
	if err != nil {
		return "", err
	}
	return fire(ctx, m, trigger)
}

// NextRequestStatus returns the status a training request moves to
func (e *Engine) NextRequestStatus(ctx context.Context, from entity.RequestStatus, trigger domainwf.Trigger) (entity.RequestStatus, error) {
	m, err := BuildTrainingRequestStateMachine(from)
	if err != nil {
		return "", err
	}
	return fire(ctx, m, trigger)
}

// NextInvoiceStatus returns the status an invoice of the given type moves to
func (e *Engine) NextInvoiceStatus(ctx context.Context, invoiceType entity.InvoiceType, from entity.InvoiceStatus, trigger domainwf.Trigger) (entity.InvoiceStatus, error) {
	m, err := BuildInvoiceStateMachine(invoiceType, from, e.directPay)
	if err != nil {
		return "", err
	}
	return fire(ctx, m, trigger)
}

func fire[S domainwf.State](ctx context.Context, m domainwf.StateMachine[S], trigger domainwf.Trigger) (S, error) {
	if err := m.Fire(ctx, trigger); err != nil {
		var zero S
		return zero, err
	}
	return m.State(), nil
}

// Record appends a history row. Initial creation is recorded with an empty previous status.
func (e *Engine) Record(ctx context.Context, entityType string, entityID int64, from, to string, trigger domainwf.Trigger, actor entity.Identity) error {
	if e.history == nil {
		return nil
	}

	row := &entity.StatusTransition{
		EntityType:     entityType,
		EntityID:       entityID,
		PreviousStatus: from,
		NewStatus:      to,
		Trigger:        trigger.String(),
		ActorID:        actor.UserID,
		ActorRole:      actor.Role,
		OccurredAt:     e.now(),
	}
	if err := e.history.Create(ctx, row); err != nil {
		return fmt.Errorf("failed to record %s %d transition: %w", entityType, entityID, err)
	}
	return nil
}

// History returns the recorded transitions of one entity, oldest first
func (e *Engine) History(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusTransition, error) {
	if e.history == nil {
		return []*entity.StatusTransition{}, nil
	}
	return e.history.ListByEntity(ctx, entityType, entityID)
}

// Publish emits a domain event asynchronously once an operation has finished
func (e *Engine) Publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil || evt == nil {
		return
	}
	e.dispatcher.DispatchAsync(ctx, evt)
}
