package service

import (
	"context"
	"fmt"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/pkg/utils"
)

// Session is the result of a successful login
type Session struct {
	Token    string          `json:"token"`
	Identity entity.Identity `json:"identity"`
}

// AuthService authenticates users and resolves session tokens
type AuthService interface {
	// Login checks credentials for the requested role and issues a token
	Login(ctx context.Context, username, password string, role entity.Role) (*Session, error)
	// Resolve maps a bearer token back to its identity
	Resolve(ctx context.Context, token string) (entity.Identity, error)
	// Logout revokes a token
	Logout(ctx context.Context, token string) error
	// Register creates a user with a hashed password
	Register(ctx context.Context, username, password, name string, role entity.Role) (*entity.User, error)
}

type authServiceImpl struct {
	userRepo port.UserRepository
	hasher   port.PasswordHasher
	sessions port.SessionStore
	logger   Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo port.UserRepository, hasher port.PasswordHasher, sessions port.SessionStore, logger Logger) AuthService {
	return &authServiceImpl{
		userRepo: userRepo,
		hasher:   hasher,
		sessions: sessions,
		logger:   logger,
	}
}

func (s *authServiceImpl) Login(ctx context.Context, username, password string, role entity.Role) (*Session, error) {
	user, err := s.userRepo.GetByUsername(ctx, utils.SanitizeString(username))
	if err != nil {
		return nil, fmt.Errorf("load user %q: %w", username, err)
	}
	// unknown user, wrong password and wrong role are indistinguishable to the caller
	if user == nil || user.Role != role {
		s.logger.Info("Login rejected", "username", username, "role", role)
		return nil, entity.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Info("Login rejected", "username", username, "role", role)
		return nil, entity.ErrInvalidCredentials
	}

	identity := user.Identity()
	token, err := s.sessions.Issue(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &Session{Token: token, Identity: identity}, nil
}

func (s *authServiceImpl) Resolve(ctx context.Context, token string) (entity.Identity, error) {
	return s.sessions.Resolve(ctx, token)
}

func (s *authServiceImpl) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

func (s *authServiceImpl) Register(ctx context.Context, username, password, name string, role entity.Role) (*entity.User, error) {
	username = utils.SanitizeString(username)
	name = utils.SanitizeString(name)

	verr := entity.NewValidationError()
	if username == "" {
		verr.Add("username", "is required")
	}
	if len(password) < 8 {
		verr.Add("password", "must be at least 8 characters")
	}
	if name == "" {
		verr.Add("name", "is required")
	}
	if !role.IsValid() {
		verr.Add("role", fmt.Sprintf("unknown role %q", role))
	}
	if verr.HasErrors() {
		return nil, verr
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user %q: %w", username, err)
	}
	if existing != nil {
		verr.Add("username", "is already taken")
		return nil, verr
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &entity.User{Username: username, PasswordHash: hash, Role: role, Name: name}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", role)
	return user, nil
}
