package service

import (
	"context"
	"fmt"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/application/workflow"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/domain/event"
	domainwf "github.com/garyjia/training-procurement/internal/domain/workflow"
	"github.com/garyjia/training-procurement/pkg/utils"
)

// SubmitPurchaseOrderInput carries the client-supplied fields of a new PO
type SubmitPurchaseOrderInput struct {
	ClientName          string
	CompanyName         string
	Email               string
	Phone               string
	TrainingRequirement string
	Technology          string
	Duration            string
	ExpectedStartDate   string
	Budget              float64
}

// Validate checks every field and reports all failures at once
func (in SubmitPurchaseOrderInput) Validate() error {
	verr := entity.NewValidationError()

	required := []struct {
		field, value string
	}{
		{"client_name", in.ClientName},
		{"company_name", in.CompanyName},
		{"email", in.Email},
		{"phone", in.Phone},
		{"training_requirement", in.TrainingRequirement},
		{"technology", in.Technology},
		{"duration", in.Duration},
		{"expected_start_date", in.ExpectedStartDate},
	}
	for _, r := range required {
		if utils.IsBlank(r.value) {
			verr.Add(r.field, "is required")
		}
	}

	if !utils.IsBlank(in.Email) {
		if err := utils.ValidateEmail(in.Email); err != nil {
			verr.Add("email", "must be a valid email address")
		}
	}
	if !utils.IsBlank(in.Phone) {
		if err := utils.ValidatePhone(in.Phone); err != nil {
			verr.Add("phone", "must have at least 10 digits, spaces or hyphens")
		}
	}
	if err := utils.ValidateAmount(in.Budget); err != nil {
		verr.Add("budget", "must be greater than 0")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// PurchaseOrderService manages the client-facing side of the PO lifecycle
type PurchaseOrderService interface {
	// Submit creates a Pending PO owned by the calling client
	Submit(ctx context.Context, identity entity.Identity, input SubmitPurchaseOrderInput) (*entity.PurchaseOrder, error)
	// Get returns a PO visible to the caller
	Get(ctx context.Context, identity entity.Identity, id int64) (*entity.PurchaseOrder, error)
	// List returns the POs visible to the caller, optionally filtered by status
	List(ctx context.Context, identity entity.Identity, status entity.POStatus) ([]*entity.PurchaseOrder, error)
	// History returns the status trail of any workflow entity (admin only)
	History(ctx context.Context, identity entity.Identity, entityType string, id int64) ([]*entity.StatusTransition, error)
}

type purchaseOrderServiceImpl struct {
	poRepo      port.PurchaseOrderRepository
	trainerRepo port.TrainerRepository
	engine      *workflow.Engine
	logger      Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	poRepo port.PurchaseOrderRepository,
	trainerRepo port.TrainerRepository,
	engine *workflow.Engine,
	logger Logger,
) PurchaseOrderService {
	return &purchaseOrderServiceImpl{
		poRepo:      poRepo,
		trainerRepo: trainerRepo,
		engine:      engine,
		logger:      logger,
	}
}

func (s *purchaseOrderServiceImpl) Submit(ctx context.Context, identity entity.Identity, input SubmitPurchaseOrderInput) (po *entity.PurchaseOrder, err error) {
	defer func() { observe("submit", err) }()

	if err := requireRole(identity, entity.RoleClient); err != nil {
		return nil, err
	}

	input = SubmitPurchaseOrderInput{
		ClientName:          utils.SanitizeString(input.ClientName),
		CompanyName:         utils.SanitizeString(input.CompanyName),
		Email:               utils.SanitizeString(input.Email),
		Phone:               utils.SanitizeString(input.Phone),
		TrainingRequirement: utils.SanitizeString(input.TrainingRequirement),
		Technology:          utils.SanitizeString(input.Technology),
		Duration:            utils.SanitizeString(input.Duration),
		ExpectedStartDate:   utils.SanitizeString(input.ExpectedStartDate),
		Budget:              input.Budget,
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	po = &entity.PurchaseOrder{
		ClientID:            identity.UserID,
		ClientName:          input.ClientName,
		CompanyName:         input.CompanyName,
		Email:               input.Email,
		Phone:               input.Phone,
		TrainingRequirement: input.TrainingRequirement,
		Technology:          input.Technology,
		Duration:            input.Duration,
		ExpectedStartDate:   input.ExpectedStartDate,
		Budget:              input.Budget,
		Status:              entity.POStatusPending,
	}

	if err := s.poRepo.Create(ctx, po); err != nil {
		s.logger.Error("Failed to create purchase order", "error", err, "client_id", identity.UserID)
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	if err := s.engine.Record(ctx, entity.EntityPurchaseOrder, po.ID, "", po.Status.String(), domainwf.TriggerSubmit, identity); err != nil {
		// submission stands without its history row
		s.logger.Error("Failed to record submission", "error", err, "po_id", po.ID)
	}

	s.logger.Info("Purchase order submitted", "po_id", po.ID, "client_id", po.ClientID, "budget", po.Budget)
	s.engine.Publish(ctx, event.NewEvent(event.TypePurchaseOrderSubmitted, entity.EntityPurchaseOrder, po.ID, map[string]interface{}{
		"client_id":  po.ClientID,
		"technology": po.Technology,
		"budget":     po.Budget,
	}).WithActor(identity.UserID))

	return po, nil
}

func (s *purchaseOrderServiceImpl) Get(ctx context.Context, identity entity.Identity, id int64) (*entity.PurchaseOrder, error) {
	po, err := load(ctx, entity.EntityPurchaseOrder, id, s.poRepo.GetByID)
	if err != nil {
		return nil, err
	}

	switch identity.Role {
	case entity.RoleAdmin:
		return po, nil
	case entity.RoleClient:
		if po.ClientID == identity.UserID {
			return po, nil
		}
	case entity.RoleTrainer:
		trainer, err := callerTrainer(ctx, s.trainerRepo, identity)
		if err != nil {
			return nil, err
		}
		if po.AssignedTrainerID != nil && *po.AssignedTrainerID == trainer.ID {
			return po, nil
		}
	}
	return nil, fmt.Errorf("%w: purchase order %d", entity.ErrForbidden, id)
}

func (s *purchaseOrderServiceImpl) List(ctx context.Context, identity entity.Identity, status entity.POStatus) ([]*entity.PurchaseOrder, error) {
	filter := port.Filter{}
	if status != "" {
		if !status.IsValid() {
			verr := entity.NewValidationError()
			verr.Add("status", fmt.Sprintf("unknown purchase order status %q", status))
			return nil, verr
		}
		filter = filter.Where(port.FieldStatus, status)
	}

	switch identity.Role {
	case entity.RoleAdmin:
	case entity.RoleClient:
		filter = filter.Where(port.FieldClientID, identity.UserID)
	case entity.RoleTrainer:
		trainer, err := callerTrainer(ctx, s.trainerRepo, identity)
		if err != nil {
			return nil, err
		}
		filter = filter.Where(port.FieldAssignedTrainerID, trainer.ID)
	default:
		return nil, requireRole(identity, entity.RoleAdmin, entity.RoleClient, entity.RoleTrainer)
	}

	return s.poRepo.List(ctx, filter)
}

func (s *purchaseOrderServiceImpl) History(ctx context.Context, identity entity.Identity, entityType string, id int64) ([]*entity.StatusTransition, error) {
	if err := requireRole(identity, entity.RoleAdmin); err != nil {
		return nil, err
	}
	switch entityType {
	case entity.EntityPurchaseOrder, entity.EntityTrainingRequest, entity.EntityInvoice:
	default:
		verr := entity.NewValidationError()
		verr.Add("entity_type", fmt.Sprintf("unknown entity type %q", entityType))
		return nil, verr
	}
	return s.engine.History(ctx, entityType, id)
}
