package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/adapter"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ SessionUseCase = (*sessionUC)(nil)

// SessionUseCase turns credentials into identities and identities into callers.
// A Caller is rebuilt on every request; nothing about privilege is kept between requests.
type SessionUseCase interface {
	Authenticate(ctx context.Context, email, password string) (*model.Identity, error)
	ResolveCaller(ctx context.Context, uid, sessionID string) (*model.Caller, error)
	Logout(ctx context.Context, sessionID string, remaining time.Duration) error
}

type sessionUC struct {
	ids       adapter.IdentityProvider
	revoker   adapter.SessionRevoker
	users     repository.UserProfileRepository
	bootstrap BootstrapGuard
	log       *zerolog.Logger
}

func NewSessionUseCase(ids adapter.IdentityProvider, revoker adapter.SessionRevoker, users repository.UserProfileRepository, bootstrap BootstrapGuard, logger *zerolog.Logger) *sessionUC {
	return &sessionUC{ids: ids, revoker: revoker, users: users, bootstrap: bootstrap, log: logger}
}

func (s *sessionUC) Authenticate(ctx context.Context, email, password string) (*model.Identity, error) {
	defer logging.TraceDuration(s.log, "SessionUC.Authenticate")()

	id, err := s.ids.VerifyCredentials(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			logging.With(ctx, s.log).Info().Msg("login rejected")
			return nil, err
		}
		return nil, upstream("verify credentials", err)
	}
	return id, nil
}

func (s *sessionUC) ResolveCaller(ctx context.Context, uid, sessionID string) (*model.Caller, error) {
	defer logging.TraceDuration(s.log, "SessionUC.ResolveCaller")()

	if sessionID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, sessionID)
		if err != nil {
			return nil, upstream("check revocation", err)
		}
		if revoked {
			return nil, domain.ErrSessionExpired
		}
	}

	if _, err := s.bootstrap.EnsureDefaultAdminExists(ctx); err != nil {
		return nil, err
	}

	ident, err := s.ids.GetIdentity(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, upstream("get identity", err)
	}

	caller := &model.Caller{Identity: *ident, SessionID: sessionID}
	profile, err := s.users.FindByUserID(ctx, repository.NoTX, uid)
	switch {
	case err == nil:
		caller.Profile = profile
	case errors.Is(err, domain.ErrNotFound):
		caller.Profile, err = s.claimDefault(ctx, ident)
		if err != nil {
			return nil, err
		}
	default:
		return nil, upstream("find profile", err)
	}
	return caller, nil
}

// claimDefault binds the bootstrap profile to the first identity that logs in with the
// bootstrap email. Returns nil when there is nothing to claim.
func (s *sessionUC) claimDefault(ctx context.Context, ident *model.Identity) (*model.UserProfile, error) {
	if !strings.EqualFold(ident.Email, s.bootstrap.Email()) {
		return nil, nil
	}
	def, err := s.bootstrap.DefaultProfile(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	p, err := s.users.LinkIdentity(ctx, repository.NoTX, def.ID, ident.UID)
	if err != nil {
		return nil, upstream("link default profile", err)
	}
	s.log.Info().Str("profile_id", p.ID).Str("uid", ident.UID).Msg("default admin profile claimed")
	return p, nil
}

func (s *sessionUC) Logout(ctx context.Context, sessionID string, remaining time.Duration) error {
	defer logging.TraceDuration(s.log, "SessionUC.Logout")()
	if sessionID == "" || remaining <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, sessionID, remaining); err != nil {
		return upstream("revoke session", err)
	}
	return nil
}
