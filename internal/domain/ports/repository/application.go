package repository

import (
	"context"

	"intake-review/internal/domain/model"
)

// MaxInQueryValues caps the number of values in a single set-membership query.
const MaxInQueryValues = 10

// ApplicationRepository stores submitted applications.
type ApplicationRepository interface {
	Create(ctx context.Context, tx Tx, a *model.Application) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Application, error)
	// List returns every application matching filter ordered by SubmittedAt desc.
	List(ctx context.Context, tx Tx, filter model.ApplicationFilter) ([]*model.Application, error)
	// ListByRefCodes returns applications whose RefCodeID is one of codes, ordered by
	// SubmittedAt desc. It fails with domain.ErrTooManyValues when len(codes) exceeds
	// MaxInQueryValues.
	ListByRefCodes(ctx context.Context, tx Tx, codes []string, filter model.ApplicationFilter) ([]*model.Application, error)
	Update(ctx context.Context, tx Tx, id string, patch model.ApplicationPatch) (*model.Application, error)
	Delete(ctx context.Context, tx Tx, id string) error
	Stats(ctx context.Context, tx Tx) (*model.ApplicationStats, error)
}
