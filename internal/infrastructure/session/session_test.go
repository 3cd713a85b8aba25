package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/garyjia/training-procurement/internal/domain/entity"
)

func TestJWTStore(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store, err := NewJWTStore("test-secret", time.Hour, WithClock(clock))
	require.NoError(t, err)
	ctx := context.Background()

	identity := entity.Identity{UserID: 42, Role: entity.RoleTrainer, Name: "Tom"}
	token, err := store.Issue(ctx, identity)
	require.NoError(t, err)

	got, err := store.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	t.Run("other secret", func(t *testing.T) {
		other, err := NewJWTStore("another-secret", time.Hour, WithClock(clock))
		require.NoError(t, err)
		_, err = other.Resolve(ctx, token)
		assert.ErrorIs(t, err, entity.ErrUnauthenticated)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := store.Resolve(ctx, "not.a.token")
		assert.ErrorIs(t, err, entity.ErrUnauthenticated)
	})

	t.Run("expiry", func(t *testing.T) {
		later, err := NewJWTStore("test-secret", time.Hour, WithClock(func() time.Time { return now.Add(2 * time.Hour) }))
		require.NoError(t, err)
		_, err = later.Resolve(ctx, token)
		assert.ErrorIs(t, err, entity.ErrUnauthenticated)
	})

	t.Run("none algorithm rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "1", "role": "admin", "iss": issuer, "exp": now.Add(time.Hour).Unix(),
		})
		s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = store.Resolve(ctx, s)
		assert.ErrorIs(t, err, entity.ErrUnauthenticated)
	})

	require.NoError(t, store.Revoke(ctx, token))
	_, err = store.Resolve(ctx, token)
	assert.ErrorIs(t, err, entity.ErrUnauthenticated)

	fresh, err := store.Issue(ctx, identity)
	require.NoError(t, err)
	_, err = store.Resolve(ctx, fresh)
	assert.NoError(t, err, "revoking one token leaves others valid")
}

func TestNewJWTStore_EmptySecret(t *testing.T) {
	_, err := NewJWTStore("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "battery staple"))
}
