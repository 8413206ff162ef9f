//go:build !integration

package identity

import (
	"context"
	"testing"
	"time"

	"intake-review/internal/domain"
	"intake-review/internal/infra/db/memory"
	"intake-review/internal/infra/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestProvider(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(memory.NewIdentityRepo(), bcrypt.MinCost, logging.Nop())

	created, err := p.CreateIdentity(ctx, "admin@example.com", "s3cret-pass", "Ada")
	require.NoError(t, err)
	require.NotEmpty(t, created.UID)

	t.Run("verify ok", func(t *testing.T) {
		got, err := p.VerifyCredentials(ctx, "admin@example.com", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, created.UID, got.UID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := p.VerifyCredentials(ctx, "admin@example.com", "nope")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := p.VerifyCredentials(ctx, "ghost@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := p.CreateIdentity(ctx, "admin@example.com", "other-pass", "")
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)
	})

	t.Run("password reset", func(t *testing.T) {
		require.NoError(t, p.UpdatePassword(ctx, created.UID, "new-pass-123"))
		_, err := p.VerifyCredentials(ctx, "admin@example.com", "s3cret-pass")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
		_, err = p.VerifyCredentials(ctx, "admin@example.com", "new-pass-123")
		assert.NoError(t, err)
	})

	t.Run("get unknown uid", func(t *testing.T) {
		_, err := p.GetIdentity(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProvider_UnknownEmailCostsAsMuchAsWrongPassword(t *testing.T) {
	ctx := context.Background()
	const cost = bcrypt.DefaultCost
	p := NewProvider(memory.NewIdentityRepo(), cost, logging.Nop())
	_, err := p.CreateIdentity(ctx, "admin@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	got, err := bcrypt.Cost(p.dummyHash)
	require.NoError(t, err)
	assert.Equal(t, cost, got)

	elapsed := func(email string) time.Duration {
		start := time.Now()
		for i := 0; i < 3; i++ {
			_, err := p.VerifyCredentials(ctx, email, "wrong-pass")
			require.ErrorIs(t, err, domain.ErrInvalidCredentials)
		}
		return time.Since(start)
	}
	known := elapsed("admin@example.com")
	unknown := elapsed("ghost@example.com")
	assert.Greater(t, unknown, known/3, "unknown=%s known=%s", unknown, known)
}
