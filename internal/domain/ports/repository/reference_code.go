package repository

import (
	"context"

	"intake-review/internal/domain/model"
)

// ReferenceCodeRepository stores invitation codes. Code values are not unique.
type ReferenceCodeRepository interface {
	Create(ctx context.Context, tx Tx, c *model.ReferenceCode) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.ReferenceCode, error)
	// FindByCode returns the first code whose value equals code. Which duplicate wins
	// is unspecified.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.ReferenceCode, error)
	CountByCode(ctx context.Context, tx Tx, code string) (int, error)
	// ListAll returns every code, newest first.
	ListAll(ctx context.Context, tx Tx) ([]*model.ReferenceCode, error)
	// ListByCreator returns the codes created by a profile, newest first.
	ListByCreator(ctx context.Context, tx Tx, creatorID string) ([]*model.ReferenceCode, error)
	UpdateCode(ctx context.Context, tx Tx, id, code string) (*model.ReferenceCode, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
