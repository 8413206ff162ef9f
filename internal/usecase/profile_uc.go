package usecase

import (
	"context"
	"errors"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/adapter"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/logging"
	"intake-review/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const minPasswordLength = 8

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

type CreateAdminInput struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

// Privileges is what the admin UI needs to decide which screens to show.
type Privileges struct {
	Profile *model.UserProfile `json:"profile,omitempty"`
	Capabilities
}

// ProfileUseCase manages administrator accounts. Everything except Privileges requires
// a super-admin caller.
type ProfileUseCase interface {
	Privileges(ctx context.Context, caller *model.Caller) (*Privileges, error)
	CreateAdmin(ctx context.Context, caller *model.Caller, in CreateAdminInput) (*model.UserProfile, error)
	List(ctx context.Context, caller *model.Caller) ([]*model.UserProfile, error)
	Update(ctx context.Context, caller *model.Caller, id string, patch model.ProfilePatch) (*model.UserProfile, error)
	SetActive(ctx context.Context, caller *model.Caller, id string, active bool) (*model.UserProfile, error)
	Delete(ctx context.Context, caller *model.Caller, id string) error
	ResetPassword(ctx context.Context, caller *model.Caller, id, password string) error
}

type profileUC struct {
	users     repository.UserProfileRepository
	ids       adapter.IdentityProvider
	access    AccessEngine
	bootstrap BootstrapGuard
	log       *zerolog.Logger
}

func NewProfileUseCase(users repository.UserProfileRepository, ids adapter.IdentityProvider, access AccessEngine, bootstrap BootstrapGuard, logger *zerolog.Logger) *profileUC {
	return &profileUC{users: users, ids: ids, access: access, bootstrap: bootstrap, log: logger}
}

func profileOf(c *model.Caller) *model.UserProfile {
	if c == nil {
		return nil
	}
	return c.Profile
}

func (u *profileUC) Privileges(ctx context.Context, caller *model.Caller) (*Privileges, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.Privileges")()

	if _, err := u.bootstrap.EnsureDefaultAdminExists(ctx); err != nil {
		return nil, err
	}
	p := profileOf(caller)
	return &Privileges{Profile: p, Capabilities: u.access.Capabilities(p)}, nil
}

func (u *profileUC) requireManager(caller *model.Caller) error {
	if !u.access.CanManageProfiles(profileOf(caller)) {
		return domain.ErrUnauthorized
	}
	return nil
}

func (u *profileUC) CreateAdmin(ctx context.Context, caller *model.Caller, in CreateAdminInput) (*model.UserProfile, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.CreateAdmin")()

	if err := u.requireManager(caller); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = model.RoleAdmin
	}
	verr := &domain.ValidationError{}
	if !in.Role.Valid() {
		verr.Add("role", "must be ADMIN or SUPER_ADMIN")
	}
	if len(in.Password) < minPasswordLength {
		verr.Add("password", "must be at least 8 characters")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	// Validate the profile shape before touching the identity provider.
	if _, err := model.NewUserProfile("pending", in.Email, in.Name, in.Role); err != nil {
		return nil, (&domain.ValidationError{}).Add("email", "must be a valid email address")
	}

	u.warnDuplicateEmail(ctx, in.Email, "")

	ident, err := u.ids.CreateIdentity(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		return nil, upstream("create identity", err)
	}
	p, err := model.NewUserProfile(ident.UID, in.Email, in.Name, in.Role)
	if err != nil {
		return nil, err
	}
	if err := u.users.Create(ctx, repository.NoTX, p); err != nil {
		// The identity stays behind; there is no cross-store transaction to roll back.
		u.log.Error().Err(err).Str("uid", ident.UID).Str("email", in.Email).Msg("profile creation failed; identity orphaned")
		return nil, upstream("create profile", err)
	}
	logging.With(ctx, u.log).Info().Str("new_profile_id", p.ID).Str("role", string(p.Role)).Msg("admin created")
	return p, nil
}

func (u *profileUC) List(ctx context.Context, caller *model.Caller) ([]*model.UserProfile, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.List")()
	if err := u.requireManager(caller); err != nil {
		return nil, err
	}
	ps, err := u.users.List(ctx, repository.NoTX)
	if err != nil {
		return nil, upstream("list profiles", err)
	}
	return ps, nil
}

func (u *profileUC) Update(ctx context.Context, caller *model.Caller, id string, patch model.ProfilePatch) (*model.UserProfile, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.Update")()
	if err := u.requireManager(caller); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, (&domain.ValidationError{}).Add("body", "no fields to update")
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if id == caller.Profile.ID && ((patch.Role != nil && *patch.Role != caller.Profile.Role) || (patch.IsActive != nil && !*patch.IsActive)) {
		return nil, (&domain.ValidationError{}).Add("id", "cannot demote or deactivate your own profile")
	}
	if patch.Email != nil {
		u.warnDuplicateEmail(ctx, *patch.Email, id)
	}
	p, err := u.users.Update(ctx, repository.NoTX, id, patch)
	if err != nil {
		return nil, upstream("update profile", err)
	}
	return p, nil
}

// warnDuplicateEmail logs and counts an email already held by a profile other than self.
// Profile emails are not unique; lookups by email resolve to the oldest match.
func (u *profileUC) warnDuplicateEmail(ctx context.Context, email, self string) {
	existing, err := u.users.FindByEmail(ctx, repository.NoTX, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return
	case err != nil:
		u.log.Warn().Err(err).Msg("duplicate email check failed")
		return
	case existing.ID == self:
		return
	}
	metrics.IncDuplicateProfileEmail()
	logging.With(ctx, u.log).Warn().
		Str("existing_profile_id", existing.ID).
		Msg("profile email already in use")
}

func (u *profileUC) SetActive(ctx context.Context, caller *model.Caller, id string, active bool) (*model.UserProfile, error) {
	defer logging.TraceDuration(u.log, "ProfileUC.SetActive")()
	return u.Update(ctx, caller, id, model.ProfilePatch{IsActive: &active})
}

func (u *profileUC) Delete(ctx context.Context, caller *model.Caller, id string) error {
	defer logging.TraceDuration(u.log, "ProfileUC.Delete")()
	if err := u.requireManager(caller); err != nil {
		return err
	}
	if id == caller.Profile.ID {
		return (&domain.ValidationError{}).Add("id", "cannot delete your own profile")
	}
	// Codes created by this profile are kept; their creator resolves to "Unknown Admin".
	if err := u.users.Delete(ctx, repository.NoTX, id); err != nil {
		return upstream("delete profile", err)
	}
	logging.With(ctx, u.log).Info().Str("deleted_profile_id", id).Msg("admin deleted")
	return nil
}

func (u *profileUC) ResetPassword(ctx context.Context, caller *model.Caller, id, password string) error {
	defer logging.TraceDuration(u.log, "ProfileUC.ResetPassword")()
	if err := u.requireManager(caller); err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return (&domain.ValidationError{}).Add("password", "must be at least 8 characters")
	}
	p, err := u.users.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return upstream("find profile", err)
	}
	if p.IsDefault() {
		return (&domain.ValidationError{}).Add("id", "profile has no linked identity")
	}
	if err := u.ids.UpdatePassword(ctx, p.UserID, password); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return upstream("update password", err)
	}
	return nil
}
