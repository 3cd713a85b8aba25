package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/infrastructure/persistence/sqlite"
)

// StatusTransitionRepository implements port.StatusTransitionRepository
type StatusTransitionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStatusTransitionRepository creates a new status history repository
func NewStatusTransitionRepository(db *sql.DB, logger *zap.Logger) port.StatusTransitionRepository {
	return &StatusTransitionRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history record
func (r *StatusTransitionRepository) Create(ctx context.Context, st *entity.StatusTransition) error {
	query := `
		INSERT INTO status_transitions (
			entity_type, entity_id, previous_status, new_status,
			trigger_name, actor_id, actor_role, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	st.OccurredAt = stamp(st.OccurredAt)
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		st.EntityType,
		st.EntityID,
		st.PreviousStatus,
		st.NewStatus,
		st.Trigger,
		st.ActorID,
		string(st.ActorRole),
		st.OccurredAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	st.ID = id
	return nil
}

// ListByEntity retrieves all history records of one entity, oldest first
func (r *StatusTransitionRepository) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]*entity.StatusTransition, error) {
	query := `
		SELECT id, entity_type, entity_id, previous_status, new_status,
			trigger_name, actor_id, actor_role, occurred_at
		FROM status_transitions
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		r.logger.Error("Failed to get history",
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.StatusTransition{}
	for rows.Next() {
		var (
			record entity.StatusTransition
			role   string
		)
		err := rows.Scan(
			&record.ID,
			&record.EntityType,
			&record.EntityID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Trigger,
			&record.ActorID,
			&role,
			&record.OccurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.ActorRole = entity.Role(role)
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.StatusTransitionRepository = (*StatusTransitionRepository)(nil)
