package repository

import (
	"context"

	"intake-review/internal/domain/model"
)

// IdentityRepository backs the built-in identity provider. Email is unique here.
type IdentityRepository interface {
	Create(ctx context.Context, tx Tx, rec *model.IdentityRecord) error
	FindByUID(ctx context.Context, tx Tx, uid string) (*model.IdentityRecord, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.IdentityRecord, error)
	UpdatePasswordHash(ctx context.Context, tx Tx, uid string, hash []byte) error
}
