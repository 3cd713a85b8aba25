package service

import (
	"context"
	"fmt"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/pkg/utils"
)

// TrainerProfileInput is the editable part of a trainer profile
type TrainerProfileInput struct {
	Name              string
	Email             string
	Phone             string
	Expertise         []string
	YearsOfExperience int
	Bio               string
	Certifications    []string
	HourlyRate        float64
	Availability      entity.Availability
	ProfileImage      string
	LinkedIn          string
}

// Validate checks the profile fields and reports all failures at once
func (in TrainerProfileInput) Validate() error {
	verr := entity.NewValidationError()
	if utils.IsBlank(in.Name) {
		verr.Add("name", "is required")
	}
	if utils.IsBlank(in.Email) {
		verr.Add("email", "is required")
	} else if err := utils.ValidateEmail(in.Email); err != nil {
		verr.Add("email", "must be a valid email address")
	}
	if !utils.IsBlank(in.Phone) {
		if err := utils.ValidatePhone(in.Phone); err != nil {
			verr.Add("phone", "must have at least 10 digits, spaces or hyphens")
		}
	}
	if in.YearsOfExperience < 0 {
		verr.Add("years_of_experience", "must not be negative")
	}
	if in.HourlyRate < 0 {
		verr.Add("hourly_rate", "must not be negative")
	}
	if in.Availability != "" && !in.Availability.IsValid() {
		verr.Add("availability", fmt.Sprintf("unknown availability %q", in.Availability))
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// TrainerService manages trainer profiles
type TrainerService interface {
	// List returns every trainer profile (admin)
	List(ctx context.Context, identity entity.Identity) ([]*entity.Trainer, error)
	// GetByUserID returns the profile linked to a user
	GetByUserID(ctx context.Context, identity entity.Identity, userID int64) (*entity.Trainer, error)
	// UpdateOwnProfile overwrites the caller's profile, creating it on first save (trainer)
	UpdateOwnProfile(ctx context.Context, identity entity.Identity, input TrainerProfileInput) (*entity.Trainer, error)
	// AddCertification appends a certification to the caller's profile (trainer)
	AddCertification(ctx context.Context, identity entity.Identity, cert string) (*entity.Trainer, error)
	// RemoveCertification drops a certification from the caller's profile (trainer)
	RemoveCertification(ctx context.Context, identity entity.Identity, cert string) (*entity.Trainer, error)
}

type trainerServiceImpl struct {
	trainerRepo port.TrainerRepository
	logger      Logger
}

// NewTrainerService creates a new TrainerService
func NewTrainerService(trainerRepo port.TrainerRepository, logger Logger) TrainerService {
	return &trainerServiceImpl{
		trainerRepo: trainerRepo,
		logger:      logger,
	}
}

func (s *trainerServiceImpl) List(ctx context.Context, identity entity.Identity) ([]*entity.Trainer, error) {
	if err := requireRole(identity, entity.RoleAdmin); err != nil {
		return nil, err
	}
	return s.trainerRepo.List(ctx, port.Filter{})
}

func (s *trainerServiceImpl) GetByUserID(ctx context.Context, identity entity.Identity, userID int64) (*entity.Trainer, error) {
	if identity.Role != entity.RoleAdmin && identity.UserID != userID {
		return nil, fmt.Errorf("%w: profile of user %d", entity.ErrForbidden, userID)
	}
	trainer, err := s.trainerRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load trainer profile for user %d: %w", userID, err)
	}
	if trainer == nil {
		return nil, &entity.NotFoundError{Kind: "trainer", ID: userID}
	}
	return trainer, nil
}

func (s *trainerServiceImpl) UpdateOwnProfile(ctx context.Context, identity entity.Identity, input TrainerProfileInput) (*entity.Trainer, error) {
	if err := requireRole(identity, entity.RoleTrainer); err != nil {
		return nil, err
	}
	input.Name = utils.SanitizeString(input.Name)
	input.Email = utils.SanitizeString(input.Email)
	input.Phone = utils.SanitizeString(input.Phone)
	input.Bio = utils.SanitizeString(input.Bio)
	if err := input.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.trainerRepo.GetByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("load trainer profile for user %d: %w", identity.UserID, err)
	}

	availability := input.Availability
	if availability == "" {
		availability = entity.AvailabilityAvailable
	}
	trainer := &entity.Trainer{
		UserID:            identity.UserID,
		Name:              input.Name,
		Email:             input.Email,
		Phone:             input.Phone,
		Expertise:         dedupe(input.Expertise),
		YearsOfExperience: input.YearsOfExperience,
		Bio:               input.Bio,
		Certifications:    dedupe(input.Certifications),
		HourlyRate:        input.HourlyRate,
		Availability:      availability,
		ProfileImage:      input.ProfileImage,
		LinkedIn:          input.LinkedIn,
	}

	if existing == nil {
		if err := s.trainerRepo.Create(ctx, trainer); err != nil {
			s.logger.Error("Failed to create trainer profile", "error", err, "user_id", identity.UserID)
			return nil, fmt.Errorf("create trainer profile: %w", err)
		}
		s.logger.Info("Trainer profile created", "trainer_id", trainer.ID, "user_id", identity.UserID)
		return trainer, nil
	}

	// rating and training count are not user-editable
	trainer.ID = existing.ID
	trainer.Rating = existing.Rating
	trainer.TotalTrainings = existing.TotalTrainings
	trainer.CreatedAt = existing.CreatedAt
	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		s.logger.Error("Failed to update trainer profile", "error", err, "trainer_id", trainer.ID)
		return nil, fmt.Errorf("update trainer profile: %w", err)
	}
	s.logger.Info("Trainer profile updated", "trainer_id", trainer.ID)
	return trainer, nil
}

func (s *trainerServiceImpl) AddCertification(ctx context.Context, identity entity.Identity, cert string) (*entity.Trainer, error) {
	return s.editCertifications(ctx, identity, cert, (*entity.Trainer).AddCertification)
}

func (s *trainerServiceImpl) RemoveCertification(ctx context.Context, identity entity.Identity, cert string) (*entity.Trainer, error) {
	return s.editCertifications(ctx, identity, cert, (*entity.Trainer).RemoveCertification)
}

func (s *trainerServiceImpl) editCertifications(ctx context.Context, identity entity.Identity, cert string, edit func(*entity.Trainer, string) bool) (*entity.Trainer, error) {
	cert = utils.SanitizeString(cert)
	if cert == "" {
		verr := entity.NewValidationError()
		verr.Add("certification", "is required")
		return nil, verr
	}
	trainer, err := callerTrainer(ctx, s.trainerRepo, identity)
	if err != nil {
		return nil, err
	}
	if !edit(trainer, cert) {
		return trainer, nil
	}
	if err := s.trainerRepo.Update(ctx, trainer); err != nil {
		return nil, fmt.Errorf("update certifications of trainer %d: %w", trainer.ID, err)
	}
	return trainer, nil
}

// dedupe trims entries and drops blanks and repeats, keeping first occurrence order
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = utils.SanitizeString(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
