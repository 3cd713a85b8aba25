package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/garyjia/training-procurement/internal/application/port"
	"github.com/garyjia/training-procurement/internal/domain/entity"
)

// ErrEmptySecret is returned when the store is built without a signing key
var ErrEmptySecret = errors.New("jwt secret must not be empty")

const issuer = "training-procurement"

type claims struct {
	Role entity.Role `json:"role"`
	Name string      `json:"name"`
	jwt.RegisteredClaims
}

// JWTStore issues HS256 bearer tokens. Revocations live in memory and are
// forgotten on restart; a revoked token is dropped from the set once it expires.
type JWTStore struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry
}

// Option configures the JWT store
type Option func(*JWTStore)

// WithClock sets the time source for issuing and validating tokens
func WithClock(now func() time.Time) Option {
	return func(s *JWTStore) {
		s.now = now
	}
}

// NewJWTStore creates a session store signing with secret. Tokens live for ttl.
func NewJWTStore(secret string, ttl time.Duration, opts ...Option) (*JWTStore, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	s := &JWTStore{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for identity
func (s *JWTStore) Issue(ctx context.Context, identity entity.Identity) (string, error) {
	now := s.now()
	c := claims{
		Role: identity.Role,
		Name: identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(identity.UserID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Resolve validates a token and returns its identity
func (s *JWTStore) Resolve(ctx context.Context, token string) (entity.Identity, error) {
	c, err := s.parse(token)
	if err != nil {
		return entity.Identity{}, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[c.ID]
	s.mu.Unlock()
	if revoked {
		return entity.Identity{}, fmt.Errorf("%w: token revoked", entity.ErrUnauthenticated)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || !c.Role.IsValid() {
		return entity.Identity{}, fmt.Errorf("%w: malformed claims", entity.ErrUnauthenticated)
	}
	return entity.Identity{UserID: userID, Role: c.Role, Name: c.Name}, nil
}

// Revoke invalidates a token until it would have expired anyway
func (s *JWTStore) Revoke(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[c.ID] = c.ExpiresAt.Time
	s.pruneLocked()
	return nil
}

func (s *JWTStore) parse(token string) (*claims, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnauthenticated, err)
	}
	return c, nil
}

func (s *JWTStore) pruneLocked() {
	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
}

// Verify interface compliance
var _ port.SessionStore = (*JWTStore)(nil)
