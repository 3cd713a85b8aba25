package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/application/workflow"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/domain/event"
	domainwf "github.com/garyjia/training-procurement/internal/domain/workflow"
)

// Decision is a trainer's answer to a training request
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func (d Decision) trigger() (domainwf.Trigger, bool) {
	switch d {
	case DecisionAccept:
		return domainwf.TriggerAccept, true
	case DecisionReject:
		return domainwf.TriggerReject, true
	}
	return "", false
}

// AssignmentService drives trainer assignment and the training request lifecycle
type AssignmentService interface {
	// Assign hands a PO to a trainer and sends them a training request (admin)
	Assign(ctx context.Context, identity entity.Identity, purchaseOrderID, trainerID int64) (*entity.TrainingRequest, error)
	// Respond accepts or rejects a Sent request and mirrors the answer on the PO (trainer)
	Respond(ctx context.Context, identity entity.Identity, requestID int64, decision Decision) (*entity.TrainingRequest, error)
	// Complete marks an accepted request and its PO as delivered (trainer)
	Complete(ctx context.Context, identity entity.Identity, requestID int64) (*entity.TrainingRequest, error)
	// List returns the requests visible to the caller, optionally filtered by status
	List(ctx context.Context, identity entity.Identity, status entity.RequestStatus) ([]*entity.TrainingRequest, error)
}

type assignmentServiceImpl struct {
	poRepo      port.PurchaseOrderRepository
	requestRepo port.TrainingRequestRepository
	trainerRepo port.TrainerRepository
	engine      *workflow.Engine
	uow         uow
	logger      Logger
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	poRepo port.PurchaseOrderRepository,
	requestRepo port.TrainingRequestRepository,
	trainerRepo port.TrainerRepository,
	engine *workflow.Engine,
	unitOfWork *workflow.UnitOfWork,
	logger Logger,
) AssignmentService {
	return &assignmentServiceImpl{
		poRepo:      poRepo,
		requestRepo: requestRepo,
		trainerRepo: trainerRepo,
		engine:      engine,
		uow:         unitOfWork,
		logger:      logger,
	}
}

func (s *assignmentServiceImpl) Assign(ctx context.Context, identity entity.Identity, purchaseOrderID, trainerID int64) (req *entity.TrainingRequest, err error) {
	defer func() { observe("assign", err) }()

	if err := requireRole(identity, entity.RoleAdmin); err != nil {
		return nil, err
	}

	po, err := load(ctx, entity.EntityPurchaseOrder, purchaseOrderID, s.poRepo.GetByID)
	if err != nil {
		return nil, err
	}
	trainer, err := load(ctx, "trainer", trainerID, s.trainerRepo.GetByID)
	if err != nil {
		return nil, err
	}

	next, err := s.engine.NextPOStatus(ctx, po.Status, domainwf.TriggerAssign)
	if err != nil {
		return nil, fmt.Errorf("assign purchase order %d: %w", po.ID, err)
	}

	existing, err := s.requestRepo.List(ctx, port.Filter{port.FieldPurchaseOrderID: po.ID})
	if err != nil {
		return nil, fmt.Errorf("list requests for purchase order %d: %w", po.ID, err)
	}
	for _, r := range existing {
		if r.Status.IsActive() {
			return nil, fmt.Errorf("%w: purchase order %d already has active request %d (%s)",
				domainwf.ErrInvalidTransition, po.ID, r.ID, r.Status)
		}
	}

	req = &entity.TrainingRequest{
		PurchaseOrderID: po.ID,
		TrainerID:       trainer.ID,
		TrainerName:     trainer.Name,
		ClientName:      po.ClientName,
		Technology:      po.Technology,
		Duration:        po.Duration,
		Budget:          po.Budget,
		Status:          entity.RequestStatusSent,
	}

	err = s.uow.Execute(ctx, "assign", entity.EntityPurchaseOrder, po.ID,
		workflow.Step{Name: "update_purchase_order", Run: func(ctx context.Context) error {
			patch := entity.PurchaseOrderPatch{
				Status:              ptr(next),
				AssignedTrainerID:   ptr(trainer.ID),
				AssignedTrainerName: ptr(trainer.Name),
			}
			if err := s.poRepo.Patch(ctx, po.ID, patch); err != nil {
				return err
			}
			return s.engine.Record(ctx, entity.EntityPurchaseOrder, po.ID, po.Status.String(), next.String(), domainwf.TriggerAssign, identity)
		}},
		workflow.Step{Name: "create_training_request", Run: func(ctx context.Context) error {
			if err := s.requestRepo.Create(ctx, req); err != nil {
				return err
			}
			return s.engine.Record(ctx, entity.EntityTrainingRequest, req.ID, "", req.Status.String(), domainwf.TriggerAssign, identity)
		}},
	)
	if err != nil {
		s.logger.Error("Failed to assign trainer", "error", err, "po_id", po.ID, "trainer_id", trainer.ID)
		return nil, err
	}

	s.logger.Info("Trainer assigned", "po_id", po.ID, "trainer_id", trainer.ID, "request_id", req.ID)
	s.engine.Publish(ctx, event.NewEvent(event.TypeTrainerAssigned, entity.EntityPurchaseOrder, po.ID, map[string]interface{}{
		"trainer_id":   trainer.ID,
		"trainer_name": trainer.Name,
		"request_id":   req.ID,
	}).WithActor(identity.UserID))

	return req, nil
}

func (s *assignmentServiceImpl) Respond(ctx context.Context, identity entity.Identity, requestID int64, decision Decision) (req *entity.TrainingRequest, err error) {
	defer func() { observe("respond", err) }()

	trigger, ok := decision.trigger()
	if !ok {
		verr := entity.NewValidationError()
		verr.Add("decision", fmt.Sprintf("must be %q or %q", DecisionAccept, DecisionReject))
		return nil, verr
	}

	req, po, err := s.loadOwned(ctx, identity, requestID)
	if err != nil {
		return nil, err
	}

	nextReq, err := s.engine.NextRequestStatus(ctx, req.Status, trigger)
	if err != nil {
		return nil, fmt.Errorf("respond to request %d: %w", req.ID, err)
	}
	nextPO, err := s.engine.NextPOStatus(ctx, po.Status, trigger)
	if err != nil {
		return nil, fmt.Errorf("respond to request %d: purchase order %d: %w", req.ID, po.ID, err)
	}

	err = s.uow.Execute(ctx, "respond", entity.EntityTrainingRequest, req.ID,
		s.requestStep(identity, req, nextReq, trigger, nil),
		s.purchaseOrderStep(identity, po, nextPO, trigger),
	)
	if err != nil {
		s.logger.Error("Failed to record response", "error", err, "request_id", req.ID, "decision", decision)
		return nil, err
	}

	prev := req.Status
	req.Status = nextReq
	s.logger.Info("Training request answered", "request_id", req.ID, "po_id", po.ID, "decision", decision)
	s.engine.Publish(ctx, event.NewEvent(event.TypeRequestResponded, entity.EntityTrainingRequest, req.ID, map[string]interface{}{
		"purchase_order_id": po.ID,
		"previous_status":   prev.String(),
		"new_status":        nextReq.String(),
	}).WithActor(identity.UserID))

	return req, nil
}

func (s *assignmentServiceImpl) Complete(ctx context.Context, identity entity.Identity, requestID int64) (req *entity.TrainingRequest, err error) {
	defer func() { observe("complete", err) }()

	req, po, err := s.loadOwned(ctx, identity, requestID)
	if err != nil {
		return nil, err
	}

	nextReq, err := s.engine.NextRequestStatus(ctx, req.Status, domainwf.TriggerComplete)
	if err != nil {
		return nil, fmt.Errorf("complete request %d: %w", req.ID, err)
	}
	nextPO, err := s.engine.NextPOStatus(ctx, po.Status, domainwf.TriggerComplete)
	if err != nil {
		return nil, fmt.Errorf("complete request %d: purchase order %d: %w", req.ID, po.ID, err)
	}

	completedAt := s.engine.Now()
	err = s.uow.Execute(ctx, "complete", entity.EntityTrainingRequest, req.ID,
		s.requestStep(identity, req, nextReq, domainwf.TriggerComplete, &completedAt),
		s.purchaseOrderStep(identity, po, nextPO, domainwf.TriggerComplete),
	)
	if err != nil {
		s.logger.Error("Failed to complete training", "error", err, "request_id", req.ID)
		return nil, err
	}

	req.Status = nextReq
	req.CompletedAt = &completedAt
	s.logger.Info("Training completed", "request_id", req.ID, "po_id", po.ID)
	s.engine.Publish(ctx, event.NewEvent(event.TypeRequestCompleted, entity.EntityTrainingRequest, req.ID, map[string]interface{}{
		"purchase_order_id": po.ID,
	}).WithActor(identity.UserID))

	return req, nil
}

func (s *assignmentServiceImpl) List(ctx context.Context, identity entity.Identity, status entity.RequestStatus) ([]*entity.TrainingRequest, error) {
	filter := port.Filter{}
	if status != "" {
		if !status.IsValid() {
			verr := entity.NewValidationError()
			verr.Add("status", fmt.Sprintf("unknown request status %q", status))
			return nil, verr
		}
		filter = filter.Where(port.FieldStatus, status)
	}

	switch identity.Role {
	case entity.RoleAdmin:
	case entity.RoleTrainer:
		trainer, err := callerTrainer(ctx, s.trainerRepo, identity)
		if err != nil {
			return nil, err
		}
		filter = filter.Where(port.FieldTrainerID, trainer.ID)
	default:
		return nil, requireRole(identity, entity.RoleAdmin, entity.RoleTrainer)
	}

	return s.requestRepo.List(ctx, filter)
}

// loadOwned loads a request addressed to the calling trainer together with its PO
func (s *assignmentServiceImpl) loadOwned(ctx context.Context, identity entity.Identity, requestID int64) (*entity.TrainingRequest, *entity.PurchaseOrder, error) {
	trainer, err := callerTrainer(ctx, s.trainerRepo, identity)
	if err != nil {
		return nil, nil, err
	}
	req, err := load(ctx, entity.EntityTrainingRequest, requestID, s.requestRepo.GetByID)
	if err != nil {
		return nil, nil, err
	}
	if req.TrainerID != trainer.ID {
		return nil, nil, fmt.Errorf("%w: request %d is addressed to another trainer", entity.ErrForbidden, req.ID)
	}
	po, err := load(ctx, entity.EntityPurchaseOrder, req.PurchaseOrderID, s.poRepo.GetByID)
	if err != nil {
		return nil, nil, err
	}
	return req, po, nil
}

func (s *assignmentServiceImpl) requestStep(identity entity.Identity, req *entity.TrainingRequest, next entity.RequestStatus, trigger domainwf.Trigger, completedAt *time.Time) workflow.Step {
	return workflow.Step{Name: "update_training_request", Run: func(ctx context.Context) error {
		if err := s.requestRepo.Patch(ctx, req.ID, entity.TrainingRequestPatch{Status: ptr(next), CompletedAt: completedAt}); err != nil {
			return err
		}
		return s.engine.Record(ctx, entity.EntityTrainingRequest, req.ID, req.Status.String(), next.String(), trigger, identity)
	}}
}

func (s *assignmentServiceImpl) purchaseOrderStep(identity entity.Identity, po *entity.PurchaseOrder, next entity.POStatus, trigger domainwf.Trigger) workflow.Step {
	return workflow.Step{Name: "update_purchase_order", Run: func(ctx context.Context) error {
		if err := s.poRepo.Patch(ctx, po.ID, entity.PurchaseOrderPatch{Status: ptr(next)}); err != nil {
			return err
		}
		return s.engine.Record(ctx, entity.EntityPurchaseOrder, po.ID, po.Status.String(), next.String(), trigger, identity)
	}}
}
