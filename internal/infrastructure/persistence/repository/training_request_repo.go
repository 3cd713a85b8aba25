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

var trainingRequestColumns = map[port.Field]string{
	port.FieldTrainerID:       "trainer_id",
	port.FieldPurchaseOrderID: "purchase_order_id",
	port.FieldStatus:          "status",
}

const trainingRequestSelect = `
	SELECT id, purchase_order_id, trainer_id, trainer_name, client_name,
		technology, duration, budget, status, created_at, completed_at
	FROM training_requests`

// TrainingRequestRepository implements port.TrainingRequestRepository
type TrainingRequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTrainingRequestRepository creates a new training request repository
func NewTrainingRequestRepository(db *sql.DB, logger *zap.Logger) port.TrainingRequestRepository {
	return &TrainingRequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a training request
func (r *TrainingRequestRepository) Create(ctx context.Context, req *entity.TrainingRequest) error {
	query := `
		INSERT INTO training_requests (
			purchase_order_id, trainer_id, trainer_name, client_name,
			technology, duration, budget, status, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	req.CreatedAt = stamp(req.CreatedAt)
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		req.PurchaseOrderID,
		req.TrainerID,
		req.TrainerName,
		req.ClientName,
		req.Technology,
		req.Duration,
		req.Budget,
		req.Status.String(),
		req.CreatedAt,
		nullTime(req.CompletedAt),
	)
	if err != nil {
		r.logger.Error("Failed to create training request", zap.Int64("po_id", req.PurchaseOrderID), zap.Error(err))
		return fmt.Errorf("failed to create training request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	req.ID = id
	return nil
}

// GetByID retrieves a training request by ID
func (r *TrainingRequestRepository) GetByID(ctx context.Context, id int64) (*entity.TrainingRequest, error) {
	row := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, trainingRequestSelect+" WHERE id = ?", id)
	req, err := scanTrainingRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get training request by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get training request: %w", err)
	}
	return req, nil
}

// List returns matching training requests in insertion order
func (r *TrainingRequestRepository) List(ctx context.Context, filter port.Filter) ([]*entity.TrainingRequest, error) {
	where, args, err := whereClause(filter, trainingRequestColumns)
	if err != nil {
		return nil, err
	}

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, trainingRequestSelect+where+" ORDER BY id ASC", args...)
	if err != nil {
		r.logger.Error("Failed to list training requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list training requests: %w", err)
	}
	defer rows.Close()

	reqs := []*entity.TrainingRequest{}
	for rows.Next() {
		req, err := scanTrainingRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training request: %w", err)
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// Patch updates the non-nil fields of patch
func (r *TrainingRequestRepository) Patch(ctx context.Context, id int64, patch entity.TrainingRequestPatch) error {
	var (
		sets []string
		args []interface{}
	)
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, patch.Status.String())
	}
	if patch.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *patch.CompletedAt)
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE training_requests SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		r.logger.Error("Failed to patch training request", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update training request: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &entity.NotFoundError{Kind: entity.EntityTrainingRequest, ID: id}
	}
	return nil
}

func scanTrainingRequest(s scanner) (*entity.TrainingRequest, error) {
	var (
		req         entity.TrainingRequest
		status      string
		completedAt sql.NullTime
	)
	err := s.Scan(
		&req.ID,
		&req.PurchaseOrderID,
		&req.TrainerID,
		&req.TrainerName,
		&req.ClientName,
		&req.Technology,
		&req.Duration,
		&req.Budget,
		&status,
		&req.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = entity.RequestStatus(status)
	req.CompletedAt = timePtr(completedAt)
	return &req, nil
}

// Verify interface compliance
var _ port.TrainingRequestRepository = (*TrainingRequestRepository)(nil)
