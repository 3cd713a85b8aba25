package service

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/application/workflow"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/domain/event"
	domainwf "github.com/garyjia/training-procurement/internal/domain/workflow"
	"github.com/garyjia/training-procurement/pkg/utils"
)

// InvoiceQuery narrows an invoice listing. Zero values mean "any".
type InvoiceQuery struct {
	Type   entity.InvoiceType
	Status entity.InvoiceStatus
}

// InvoiceService manages the two-hop invoice chain
type InvoiceService interface {
	// FileTrainerInvoice bills the admin for a completed training (trainer)
	FileTrainerInvoice(ctx context.Context, identity entity.Identity, requestID int64) (*entity.Invoice, error)
	// ApproveAndForward approves a trainer invoice and derives the client invoice (admin)
	ApproveAndForward(ctx context.Context, identity entity.Identity, invoiceID int64, commissionPercent float64) (*entity.Invoice, error)
	// MarkPaid settles an invoice (admin)
	MarkPaid(ctx context.Context, identity entity.Identity, invoiceID int64) (*entity.Invoice, error)
	// List returns the invoices visible to the caller
	List(ctx context.Context, identity entity.Identity, query InvoiceQuery) ([]*entity.Invoice, error)
	// ExportLedger writes every invoice matching query as a spreadsheet (admin)
	ExportLedger(ctx context.Context, identity entity.Identity, query InvoiceQuery, w io.Writer) error
}

type invoiceServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	requestRepo port.TrainingRequestRepository
	poRepo      port.PurchaseOrderRepository
	trainerRepo port.TrainerRepository
	exporter    port.LedgerExporter
	engine      *workflow.Engine
	uow         uow
	logger      Logger
}

// NewInvoiceService creates a new InvoiceService. exporter may be nil, in which
// case ExportLedger is unavailable.
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	requestRepo port.TrainingRequestRepository,
	poRepo port.PurchaseOrderRepository,
	trainerRepo port.TrainerRepository,
	exporter port.LedgerExporter,
	engine *workflow.Engine,
	unitOfWork *workflow.UnitOfWork,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		requestRepo: requestRepo,
		poRepo:      poRepo,
		trainerRepo: trainerRepo,
		exporter:    exporter,
		engine:      engine,
		uow:         unitOfWork,
		logger:      logger,
	}
}

func (s *invoiceServiceImpl) FileTrainerInvoice(ctx context.Context, identity entity.Identity, requestID int64) (inv *entity.Invoice, err error) {
	defer func() { observe("file_trainer_invoice", err) }()

	trainer, err := callerTrainer(ctx, s.trainerRepo, identity)
	if err != nil {
		return nil, err
	}
	req, err := load(ctx, entity.EntityTrainingRequest, requestID, s.requestRepo.GetByID)
	if err != nil {
		return nil, err
	}
	if req.TrainerID != trainer.ID {
		return nil, fmt.Errorf("%w: request %d is addressed to another trainer", entity.ErrForbidden, req.ID)
	}
	if req.Status != entity.RequestStatusCompleted {
		return nil, fmt.Errorf("%w: request %d is %s, invoices need a completed training",
			domainwf.ErrInvalidTransition, req.ID, req.Status)
	}

	existing, err := s.invoiceRepo.List(ctx, port.Filter{
		port.FieldTrainerID: trainer.ID,
		port.FieldType:      entity.InvoiceTypeTrainerToAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("list invoices of trainer %d: %w", trainer.ID, err)
	}
	for _, e := range existing {
		if e.TrainingRequestID == req.ID {
			return nil, &entity.DuplicateSubmissionError{TrainingRequestID: req.ID, ExistingInvoiceID: e.ID}
		}
	}

	po, err := load(ctx, entity.EntityPurchaseOrder, req.PurchaseOrderID, s.poRepo.GetByID)
	if err != nil {
		return nil, err
	}
	nextPO, err := s.engine.NextPOStatus(ctx, po.Status, domainwf.TriggerInvoice)
	if err != nil {
		return nil, fmt.Errorf("invoice purchase order %d: %w", po.ID, err)
	}

	inv = &entity.Invoice{
		Type:              entity.InvoiceTypeTrainerToAdmin,
		PurchaseOrderID:   po.ID,
		TrainingRequestID: req.ID,
		Technology:        req.Technology,
		Duration:          req.Duration,
		TrainerID:         ptr(trainer.ID),
		TrainerName:       trainer.Name,
		TrainingAmount:    req.Budget,
		TotalAmount:       req.Budget,
		Status:            entity.InvoiceStatusPending,
	}

	err = s.uow.Execute(ctx, "file_trainer_invoice", entity.EntityTrainingRequest, req.ID,
		workflow.Step{Name: "create_trainer_invoice", Run: func(ctx context.Context) error {
			if err := s.invoiceRepo.Create(ctx, inv); err != nil {
				return err
			}
			return s.engine.Record(ctx, entity.EntityInvoice, inv.ID, "", inv.Status.String(), domainwf.TriggerInvoice, identity)
		}},
		workflow.Step{Name: "update_purchase_order", Run: func(ctx context.Context) error {
			if err := s.poRepo.Patch(ctx, po.ID, entity.PurchaseOrderPatch{Status: ptr(nextPO)}); err != nil {
				return err
			}
			return s.engine.Record(ctx, entity.EntityPurchaseOrder, po.ID, po.Status.String(), nextPO.String(), domainwf.TriggerInvoice, identity)
		}},
	)
	if err != nil {
		s.logger.Error("Failed to file trainer invoice", "error", err, "request_id", req.ID)
		return nil, err
	}

	s.logger.Info("Trainer invoice filed", "invoice_id", inv.ID, "request_id", req.ID, "amount", inv.TotalAmount)
	s.engine.Publish(ctx, event.NewEvent(event.TypeInvoiceFiled, entity.EntityInvoice, inv.ID, map[string]interface{}{
		"purchase_order_id":   po.ID,
		"training_request_id": req.ID,
		"total_amount":        inv.TotalAmount,
	}).WithActor(identity.UserID))

	return inv, nil
}

func (s *invoiceServiceImpl) ApproveAndForward(ctx context.Context, identity entity.Identity, invoiceID int64, commissionPercent float64) (clientInv *entity.Invoice, err error) {
	defer func() { observe("approve_and_forward", err) }()

	if err := requireRole(identity, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if err := utils.ValidatePercent(commissionPercent); err != nil {
		verr := entity.NewValidationError()
		verr.Add("commission_percent", "must be between 0 and 100")
		return nil, verr
	}

	inv, err := load(ctx, entity.EntityInvoice, invoiceID, s.invoiceRepo.GetByID)
	if err != nil {
		return nil, err
	}
	if inv.Type != entity.InvoiceTypeTrainerToAdmin {
		verr := entity.NewValidationError()
		verr.Add("invoice_id", "only trainer invoices can be forwarded")
		return nil, verr
	}
	next, err := s.engine.NextInvoiceStatus(ctx, inv.Type, inv.Status, domainwf.TriggerApprove)
	if err != nil {
		return nil, fmt.Errorf("approve invoice %d: %w", inv.ID, err)
	}
	po, err := load(ctx, entity.EntityPurchaseOrder, inv.PurchaseOrderID, s.poRepo.GetByID)
	if err != nil {
		return nil, err
	}

	c := entity.ComputeCommission(inv.TrainingAmount, commissionPercent)
	clientInv = &entity.Invoice{
		Type:              entity.InvoiceTypeAdminToClient,
		PurchaseOrderID:   po.ID,
		TrainingRequestID: inv.TrainingRequestID,
		Technology:        inv.Technology,
		Duration:          inv.Duration,
		TrainerID:         inv.TrainerID,
		TrainerName:       inv.TrainerName,
		ClientID:          ptr(po.ClientID),
		ClientName:        po.ClientName,
		TrainingAmount:    inv.TrainingAmount,
		CommissionPercent: ptr(c.Percent),
		CommissionAmount:  ptr(c.Amount),
		TotalAmount:       c.Total,
		Status:            entity.InvoiceStatusPending,
	}

	approvedAt := s.engine.Now()
	err = s.uow.Execute(ctx, "approve_and_forward", entity.EntityInvoice, inv.ID,
		workflow.Step{Name: "approve_trainer_invoice", Run: func(ctx context.Context) error {
			if err := s.invoiceRepo.Patch(ctx, inv.ID, entity.InvoicePatch{Status: ptr(next), ApprovedAt: &approvedAt}); err != nil {
				return err
			}
			return s.engine.Record(ctx, entity.EntityInvoice, inv.ID, inv.Status.String(), next.String(), domainwf.TriggerApprove, identity)
		}},
		workflow.Step{Name: "create_client_invoice", Run: func(ctx context.Context) error {
			if err := s.invoiceRepo.Create(ctx, clientInv); err != nil {
				return err
			}
			return s.engine.Record(ctx, entity.EntityInvoice, clientInv.ID, "", clientInv.Status.String(), domainwf.TriggerApprove, identity)
		}},
	)
	if err != nil {
		s.logger.Error("Failed to forward invoice", "error", err, "invoice_id", inv.ID)
		return nil, err
	}

	s.logger.Info("Invoice forwarded to client",
		"trainer_invoice_id", inv.ID,
		"client_invoice_id", clientInv.ID,
		"commission_percent", c.Percent,
		"total_amount", c.Total)
	s.engine.Publish(ctx, event.NewEvent(event.TypeInvoiceForwarded, entity.EntityInvoice, clientInv.ID, map[string]interface{}{
		"trainer_invoice_id": inv.ID,
		"client_id":          po.ClientID,
		"commission_amount":  c.Amount,
		"total_amount":       c.Total,
	}).WithActor(identity.UserID))

	return clientInv, nil
}

func (s *invoiceServiceImpl) MarkPaid(ctx context.Context, identity entity.Identity, invoiceID int64) (inv *entity.Invoice, err error) {
	defer func() { observe("mark_paid", err) }()

	if err := requireRole(identity, entity.RoleAdmin); err != nil {
		return nil, err
	}
	inv, err = load(ctx, entity.EntityInvoice, invoiceID, s.invoiceRepo.GetByID)
	if err != nil {
		return nil, err
	}
	next, err := s.engine.NextInvoiceStatus(ctx, inv.Type, inv.Status, domainwf.TriggerPay)
	if err != nil {
		return nil, fmt.Errorf("pay invoice %d: %w", inv.ID, err)
	}

	paidAt := s.engine.Now()
	err = s.uow.Execute(ctx, "mark_paid", entity.EntityInvoice, inv.ID,
		workflow.Step{Name: "pay_invoice", Run: func(ctx context.Context) error {
			if err := s.invoiceRepo.Patch(ctx, inv.ID, entity.InvoicePatch{Status: ptr(next), PaidAt: &paidAt}); err != nil {
				return err
			}
			return s.engine.Record(ctx, entity.EntityInvoice, inv.ID, inv.Status.String(), next.String(), domainwf.TriggerPay, identity)
		}},
	)
	if err != nil {
		s.logger.Error("Failed to mark invoice paid", "error", err, "invoice_id", inv.ID)
		return nil, err
	}

	inv.Status = next
	inv.PaidAt = &paidAt
	s.logger.Info("Invoice paid", "invoice_id", inv.ID, "type", inv.Type, "total_amount", inv.TotalAmount)
	s.engine.Publish(ctx, event.NewEvent(event.TypeInvoicePaid, entity.EntityInvoice, inv.ID, map[string]interface{}{
		"type":         string(inv.Type),
		"total_amount": inv.TotalAmount,
	}).WithActor(identity.UserID))

	return inv, nil
}

func (s *invoiceServiceImpl) List(ctx context.Context, identity entity.Identity, query InvoiceQuery) ([]*entity.Invoice, error) {
	filter, err := s.scope(ctx, identity, query)
	if err != nil {
		return nil, err
	}
	return s.invoiceRepo.List(ctx, filter)
}

func (s *invoiceServiceImpl) ExportLedger(ctx context.Context, identity entity.Identity, query InvoiceQuery, w io.Writer) error {
	if err := requireRole(identity, entity.RoleAdmin); err != nil {
		return err
	}
	if s.exporter == nil {
		return fmt.Errorf("ledger export is not configured")
	}
	invoices, err := s.List(ctx, identity, query)
	if err != nil {
		return err
	}
	if err := s.exporter.WriteLedger(ctx, invoices, w); err != nil {
		s.logger.Error("Failed to export ledger", "error", err, "invoices", len(invoices))
		return fmt.Errorf("export ledger: %w", err)
	}
	s.logger.Info("Ledger exported", "invoices", len(invoices))
	return nil
}

// scope builds the filter for the caller's view of the invoice table.
// Clients see their own client invoices, trainers their own trainer invoices.
func (s *invoiceServiceImpl) scope(ctx context.Context, identity entity.Identity, query InvoiceQuery) (port.Filter, error) {
	verr := entity.NewValidationError()
	if query.Type != "" && !query.Type.IsValid() {
		verr.Add("type", fmt.Sprintf("unknown invoice type %q", query.Type))
	}
	if query.Status != "" && !query.Status.IsValid() {
		verr.Add("status", fmt.Sprintf("unknown invoice status %q", query.Status))
	}
	if verr.HasErrors() {
		return nil, verr
	}

	filter := port.Filter{}
	if query.Status != "" {
		filter = filter.Where(port.FieldStatus, query.Status)
	}

	switch identity.Role {
	case entity.RoleAdmin:
		if query.Type != "" {
			filter = filter.Where(port.FieldType, query.Type)
		}
		return filter, nil
	case entity.RoleClient:
		if query.Type != "" && query.Type != entity.InvoiceTypeAdminToClient {
			return nil, fmt.Errorf("%w: clients only see client invoices", entity.ErrForbidden)
		}
		return filter.Where(port.FieldType, entity.InvoiceTypeAdminToClient).
			Where(port.FieldClientID, identity.UserID), nil
	case entity.RoleTrainer:
		if query.Type != "" && query.Type != entity.InvoiceTypeTrainerToAdmin {
			return nil, fmt.Errorf("%w: trainers only see trainer invoices", entity.ErrForbidden)
		}
		trainer, err := callerTrainer(ctx, s.trainerRepo, identity)
		if err != nil {
			return nil, err
		}
		return filter.Where(port.FieldType, entity.InvoiceTypeTrainerToAdmin).
			Where(port.FieldTrainerID, trainer.ID), nil
	}
	return nil, requireRole(identity, entity.RoleAdmin, entity.RoleClient, entity.RoleTrainer)
}
