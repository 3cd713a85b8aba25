package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/infrastructure/persistence/sqlite"
)

var trainerColumns = map[port.Field]string{
	port.FieldUserID: "user_id",
}

const trainerSelect = `
	SELECT id, user_id, name, email, phone, expertise, years_of_experience, bio,
		certifications, hourly_rate, availability, rating, total_trainings,
		profile_image, linked_in, created_at
	FROM trainers`

// TrainerRepository implements port.TrainerRepository.
// Expertise and certifications are stored as JSON arrays.
type TrainerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTrainerRepository creates a new trainer repository
func NewTrainerRepository(db *sql.DB, logger *zap.Logger) port.TrainerRepository {
	return &TrainerRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a trainer profile
func (r *TrainerRepository) Create(ctx context.Context, t *entity.Trainer) error {
	expertise, certs, err := encodeLists(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trainers (
			user_id, name, email, phone, expertise, years_of_experience, bio,
			certifications, hourly_rate, availability, rating, total_trainings,
			profile_image, linked_in, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	t.CreatedAt = stamp(t.CreatedAt)
	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		t.UserID,
		t.Name,
		t.Email,
		t.Phone,
		expertise,
		t.YearsOfExperience,
		t.Bio,
		certs,
		t.HourlyRate,
		string(t.Availability),
		t.Rating,
		t.TotalTrainings,
		t.ProfileImage,
		t.LinkedIn,
		t.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create trainer", zap.Int64("user_id", t.UserID), zap.Error(err))
		return fmt.Errorf("failed to create trainer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	t.ID = id
	return nil
}

// GetByID retrieves a trainer profile by ID
func (r *TrainerRepository) GetByID(ctx context.Context, id int64) (*entity.Trainer, error) {
	return r.getOne(ctx, "id", id)
}

// GetByUserID retrieves the trainer profile linked to a user
func (r *TrainerRepository) GetByUserID(ctx context.Context, userID int64) (*entity.Trainer, error) {
	return r.getOne(ctx, "user_id", userID)
}

func (r *TrainerRepository) getOne(ctx context.Context, column string, value int64) (*entity.Trainer, error) {
	row := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, trainerSelect+" WHERE "+column+" = ?", value)
	t, err := scanTrainer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get trainer", zap.String("by", column), zap.Int64("value", value), zap.Error(err))
		return nil, fmt.Errorf("failed to get trainer: %w", err)
	}
	return t, nil
}

// List returns matching trainer profiles in insertion order
func (r *TrainerRepository) List(ctx context.Context, filter port.Filter) ([]*entity.Trainer, error) {
	where, args, err := whereClause(filter, trainerColumns)
	if err != nil {
		return nil, err
	}

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, trainerSelect+where+" ORDER BY id ASC", args...)
	if err != nil {
		r.logger.Error("Failed to list trainers", zap.Error(err))
		return nil, fmt.Errorf("failed to list trainers: %w", err)
	}
	defer rows.Close()

	trainers := []*entity.Trainer{}
	for rows.Next() {
		t, err := scanTrainer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trainer: %w", err)
		}
		trainers = append(trainers, t)
	}
	return trainers, rows.Err()
}

// Update overwrites every editable column of a trainer profile
func (r *TrainerRepository) Update(ctx context.Context, t *entity.Trainer) error {
	expertise, certs, err := encodeLists(t)
	if err != nil {
		return err
	}

	query := `
		UPDATE trainers SET
			name = ?, email = ?, phone = ?, expertise = ?, years_of_experience = ?,
			bio = ?, certifications = ?, hourly_rate = ?, availability = ?,
			rating = ?, total_trainings = ?, profile_image = ?, linked_in = ?
		WHERE id = ?
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		t.Name,
		t.Email,
		t.Phone,
		expertise,
		t.YearsOfExperience,
		t.Bio,
		certs,
		t.HourlyRate,
		string(t.Availability),
		t.Rating,
		t.TotalTrainings,
		t.ProfileImage,
		t.LinkedIn,
		t.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update trainer", zap.Int64("id", t.ID), zap.Error(err))
		return fmt.Errorf("failed to update trainer: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &entity.NotFoundError{Kind: "trainer", ID: t.ID}
	}
	return nil
}

func encodeLists(t *entity.Trainer) (string, string, error) {
	expertise, err := json.Marshal(nonNil(t.Expertise))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode expertise: %w", err)
	}
	certs, err := json.Marshal(nonNil(t.Certifications))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode certifications: %w", err)
	}
	return string(expertise), string(certs), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func scanTrainer(s scanner) (*entity.Trainer, error) {
	var (
		t            entity.Trainer
		expertise    string
		certs        string
		availability string
	)
	err := s.Scan(
		&t.ID,
		&t.UserID,
		&t.Name,
		&t.Email,
		&t.Phone,
		&expertise,
		&t.YearsOfExperience,
		&t.Bio,
		&certs,
		&t.HourlyRate,
		&availability,
		&t.Rating,
		&t.TotalTrainings,
		&t.ProfileImage,
		&t.LinkedIn,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(expertise), &t.Expertise); err != nil {
		return nil, fmt.Errorf("failed to decode expertise: %w", err)
	}
	if err := json.Unmarshal([]byte(certs), &t.Certifications); err != nil {
		return nil, fmt.Errorf("failed to decode certifications: %w", err)
	}
	t.Availability = entity.Availability(availability)
	return &t, nil
}

// Verify interface compliance
var _ port.TrainerRepository = (*TrainerRepository)(nil)
