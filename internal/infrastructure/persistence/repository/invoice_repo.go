package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/infrastructure/persistence/sqlite"
)

var invoiceColumns = map[port.Field]string{
	port.FieldType:              "type",
	port.FieldTrainerID:         "trainer_id",
	port.FieldClientID:          "client_id",
	port.FieldPurchaseOrderID:   "purchase_order_id",
	port.FieldTrainingRequestID: "training_request_id",
	port.FieldStatus:            "status",
}

const invoiceSelect = `
	SELECT id, type, purchase_order_id, training_request_id, technology, duration,
		trainer_id, trainer_name, client_id, client_name,
		training_amount, commission_percent, commission_amount, total_amount,
		status, created_at, approved_at, paid_at
	FROM invoices`

// InvoiceRepository implements port.InvoiceRepository for both invoice types
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new invoice record
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			type, purchase_order_id, training_request_id, technology, duration,
			trainer_id, trainer_name, client_id, client_name,
			training_amount, commission_percent, commission_amount, total_amount,
			status, created_at, approved_at, paid_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	invoice.CreatedAt = stamp(invoice.CreatedAt)
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		string(invoice.Type),
		invoice.PurchaseOrderID,
		invoice.TrainingRequestID,
		invoice.Technology,
		invoice.Duration,
		nullInt64(invoice.TrainerID),
		invoice.TrainerName,
		nullInt64(invoice.ClientID),
		invoice.ClientName,
		invoice.TrainingAmount,
		nullFloat64(invoice.CommissionPercent),
		nullFloat64(invoice.CommissionAmount),
		invoice.TotalAmount,
		invoice.Status.String(),
		invoice.CreatedAt,
		nullTime(invoice.ApprovedAt),
		nullTime(invoice.PaidAt),
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.String("type", string(invoice.Type)), zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	invoice.ID = id
	return nil
}

// GetByID retrieves an invoice by ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	row := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, invoiceSelect+" WHERE id = ?", id)
	invoice, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// List returns matching invoices in insertion order
func (r *InvoiceRepository) List(ctx context.Context, filter port.Filter) ([]*entity.Invoice, error) {
	where, args, err := whereClause(filter, invoiceColumns)
	if err != nil {
		return nil, err
	}

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, invoiceSelect+where+" ORDER BY id ASC", args...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []*entity.Invoice{}
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// Patch updates the non-nil fields of patch
func (r *InvoiceRepository) Patch(ctx context.Context, id int64, patch entity.InvoicePatch) error {
	var (
		sets []string
		args []interface{}
	)
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, patch.Status.String())
	}
	if patch.ApprovedAt != nil {
		sets = append(sets, "approved_at = ?")
		args = append(args, *patch.ApprovedAt)
	}
	if patch.PaidAt != nil {
		sets = append(sets, "paid_at = ?")
		args = append(args, *patch.PaidAt)
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE invoices SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		r.logger.Error("Failed to patch invoice", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &entity.NotFoundError{Kind: entity.EntityInvoice, ID: id}
	}
	return nil
}

func scanInvoice(s scanner) (*entity.Invoice, error) {
	var (
		invoice           entity.Invoice
		invoiceType       string
		status            string
		trainerID         sql.NullInt64
		clientID          sql.NullInt64
		commissionPercent sql.NullFloat64
		commissionAmount  sql.NullFloat64
		approvedAt        sql.NullTime
		paidAt            sql.NullTime
	)
	err := s.Scan(
		&invoice.ID,
		&invoiceType,
		&invoice.PurchaseOrderID,
		&invoice.TrainingRequestID,
		&invoice.Technology,
		&invoice.Duration,
		&trainerID,
		&invoice.TrainerName,
		&clientID,
		&invoice.ClientName,
		&invoice.TrainingAmount,
		&commissionPercent,
		&commissionAmount,
		&invoice.TotalAmount,
		&status,
		&invoice.CreatedAt,
		&approvedAt,
		&paidAt,
	)
	if err != nil {
		return nil, err
	}
	invoice.Type = entity.InvoiceType(invoiceType)
	invoice.Status = entity.InvoiceStatus(status)
	invoice.TrainerID = int64Ptr(trainerID)
	invoice.ClientID = int64Ptr(clientID)
	invoice.CommissionPercent = float64Ptr(commissionPercent)
	invoice.CommissionAmount = float64Ptr(commissionAmount)
	invoice.ApprovedAt = timePtr(approvedAt)
	invoice.PaidAt = timePtr(paidAt)
	return &invoice, nil
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
