package usecase

import (
	"context"
	"errors"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/adapter"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ BootstrapGuard = (*bootstrapGuard)(nil)

// BootstrapGuard keeps the system from ever having zero administrators.
type BootstrapGuard interface {
	// EnsureDefaultAdminExists creates the default SUPER_ADMIN when no profile exists.
	// It reports whether a profile was created.
	EnsureDefaultAdminExists(ctx context.Context) (bool, error)
	DefaultProfile(ctx context.Context) (*model.UserProfile, error)
	// ProvisionIdentity creates a login for the default admin email if none exists.
	ProvisionIdentity(ctx context.Context, password string) error
	Email() string
}

type bootstrapGuard struct {
	users repository.UserProfileRepository
	ids   adapter.IdentityProvider
	tm    repository.TransactionManager
	email string
	name  string
	log   *zerolog.Logger
}

func NewBootstrapGuard(users repository.UserProfileRepository, ids adapter.IdentityProvider, tm repository.TransactionManager, email, name string, logger *zerolog.Logger) *bootstrapGuard {
	return &bootstrapGuard{users: users, ids: ids, tm: tm, email: email, name: name, log: logger}
}

func (b *bootstrapGuard) Email() string { return b.email }

func (b *bootstrapGuard) EnsureDefaultAdminExists(ctx context.Context) (bool, error) {
	defer logging.TraceDuration(b.log, "BootstrapGuard.EnsureDefaultAdminExists")()

	empty, err := b.users.IsEmpty(ctx, repository.NoTX)
	if err != nil {
		return false, upstream("check profiles", err)
	}
	if !empty {
		return false, nil
	}

	p, err := model.NewUserProfile("", b.email, b.name, model.RoleSuperAdmin)
	if err != nil {
		return false, err
	}
	var created bool
	err = b.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		created, err = b.users.CreateIfEmpty(ctx, tx, p)
		return err
	})
	if err != nil {
		return false, upstream("create default admin", err)
	}
	if created {
		b.log.Warn().Str("email", b.email).Msg("profile store was empty; default super admin created")
	}
	return created, nil
}

func (b *bootstrapGuard) DefaultProfile(ctx context.Context) (*model.UserProfile, error) {
	defer logging.TraceDuration(b.log, "BootstrapGuard.DefaultProfile")()
	p, err := b.users.FindDefault(ctx, repository.NoTX)
	if err != nil {
		return nil, upstream("find default profile", err)
	}
	return p, nil
}

func (b *bootstrapGuard) ProvisionIdentity(ctx context.Context, password string) error {
	defer logging.TraceDuration(b.log, "BootstrapGuard.ProvisionIdentity")()
	if password == "" {
		return nil
	}
	_, err := b.ids.CreateIdentity(ctx, b.email, password, b.name)
	switch {
	case err == nil:
		b.log.Info().Str("email", b.email).Msg("default admin identity provisioned")
		return nil
	case errors.Is(err, domain.ErrAlreadyExists):
		return nil
	default:
		return upstream("provision default identity", err)
	}
}
