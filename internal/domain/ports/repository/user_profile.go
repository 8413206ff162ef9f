package repository

import (
	"context"

	"intake-review/internal/domain/model"
)

// UserProfileRepository stores administrator profiles. Email is not unique; lookups
// by email return the first match.
type UserProfileRepository interface {
	Create(ctx context.Context, tx Tx, p *model.UserProfile) error
	// CreateIfEmpty inserts p only when no profile exists, atomically with respect to
	// other CreateIfEmpty callers. It reports whether p was inserted.
	CreateIfEmpty(ctx context.Context, tx Tx, p *model.UserProfile) (bool, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.UserProfile, error)
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.UserProfile, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.UserProfile, error)
	// FindDefault returns the bootstrap profile (empty UserID, SUPER_ADMIN).
	FindDefault(ctx context.Context, tx Tx) (*model.UserProfile, error)
	// List returns all profiles, newest first.
	List(ctx context.Context, tx Tx) ([]*model.UserProfile, error)
	Update(ctx context.Context, tx Tx, id string, patch model.ProfilePatch) (*model.UserProfile, error)
	// LinkIdentity sets the external identity of a profile.
	LinkIdentity(ctx context.Context, tx Tx, id, userID string) (*model.UserProfile, error)
	Delete(ctx context.Context, tx Tx, id string) error
	IsEmpty(ctx context.Context, tx Tx) (bool, error)
}
