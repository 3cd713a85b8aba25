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

var purchaseOrderColumns = map[port.Field]string{
	port.FieldClientID:          "client_id",
	port.FieldAssignedTrainerID: "assigned_trainer_id",
	port.FieldStatus:            "status",
}

const purchaseOrderSelect = `
	SELECT id, client_id, client_name, company_name, email, phone,
		training_requirement, technology, duration, expected_start_date, budget,
		status, assigned_trainer_id, assigned_trainer_name, created_at
	FROM purchase_orders`

// PurchaseOrderRepository implements port.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *sql.DB, logger *zap.Logger) port.PurchaseOrderRepository {
	return &PurchaseOrderRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a purchase order and fills in its ID and CreatedAt
func (r *PurchaseOrderRepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (
			client_id, client_name, company_name, email, phone,
			training_requirement, technology, duration, expected_start_date, budget,
			status, assigned_trainer_id, assigned_trainer_name, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	po.CreatedAt = stamp(po.CreatedAt)
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		po.ClientID,
		po.ClientName,
		po.CompanyName,
		po.Email,
		po.Phone,
		po.TrainingRequirement,
		po.Technology,
		po.Duration,
		po.ExpectedStartDate,
		po.Budget,
		po.Status.String(),
		nullInt64(po.AssignedTrainerID),
		nullString(po.AssignedTrainerName),
		po.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create purchase order", zap.Error(err))
		return fmt.Errorf("failed to create purchase order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	po.ID = id
	return nil
}

// GetByID retrieves a purchase order by ID
func (r *PurchaseOrderRepository) GetByID(ctx context.Context, id int64) (*entity.PurchaseOrder, error) {
	row := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, purchaseOrderSelect+" WHERE id = ?", id)
	po, err := scanPurchaseOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get purchase order by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}
	return po, nil
}

// List returns matching purchase orders in insertion order
func (r *PurchaseOrderRepository) List(ctx context.Context, filter port.Filter) ([]*entity.PurchaseOrder, error) {
	where, args, err := whereClause(filter, purchaseOrderColumns)
	if err != nil {
		return nil, err
	}

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, purchaseOrderSelect+where+" ORDER BY id ASC", args...)
	if err != nil {
		r.logger.Error("Failed to list purchase orders", zap.Error(err))
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	defer rows.Close()

	pos := []*entity.PurchaseOrder{}
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}
		pos = append(pos, po)
	}
	return pos, rows.Err()
}

// Patch updates the non-nil fields of patch
func (r *PurchaseOrderRepository) Patch(ctx context.Context, id int64, patch entity.PurchaseOrderPatch) error {
	var (
		sets []string
		args []interface{}
	)
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, patch.Status.String())
	}
	if patch.AssignedTrainerID != nil {
		sets = append(sets, "assigned_trainer_id = ?")
		args = append(args, *patch.AssignedTrainerID)
	}
	if patch.AssignedTrainerName != nil {
		sets = append(sets, "assigned_trainer_name = ?")
		args = append(args, *patch.AssignedTrainerName)
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE purchase_orders SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		r.logger.Error("Failed to patch purchase order", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update purchase order: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &entity.NotFoundError{Kind: entity.EntityPurchaseOrder, ID: id}
	}
	return nil
}

func scanPurchaseOrder(s scanner) (*entity.PurchaseOrder, error) {
	var (
		po          entity.PurchaseOrder
		status      string
		trainerID   sql.NullInt64
		trainerName sql.NullString
	)
	err := s.Scan(
		&po.ID,
		&po.ClientID,
		&po.ClientName,
		&po.CompanyName,
		&po.Email,
		&po.Phone,
		&po.TrainingRequirement,
		&po.Technology,
		&po.Duration,
		&po.ExpectedStartDate,
		&po.Budget,
		&status,
		&trainerID,
		&trainerName,
		&po.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	po.Status = entity.POStatus(status)
	po.AssignedTrainerID = int64Ptr(trainerID)
	po.AssignedTrainerName = stringPtr(trainerName)
	return &po, nil
}

// Verify interface compliance
var _ port.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)
