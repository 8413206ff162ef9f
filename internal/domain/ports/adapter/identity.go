package adapter

import (
	"context"
	"time"

	"intake-review/internal/domain/model"
)

// IdentityProvider is the external authentication collaborator. It verifies
// credentials and owns them; callers only ever see the Identity.
type IdentityProvider interface {
	VerifyCredentials(ctx context.Context, email, password string) (*model.Identity, error)
	CreateIdentity(ctx context.Context, email, password, displayName string) (*model.Identity, error)
	GetIdentity(ctx context.Context, uid string) (*model.Identity, error)
	UpdatePassword(ctx context.Context, uid, password string) error
}

// SessionRevoker records logged-out session IDs until their tokens would expire anyway.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}
