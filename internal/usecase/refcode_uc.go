package usecase

import (
	"context"
	"errors"
	"fmt"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/logging"
	"intake-review/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ RefCodeUseCase = (*refCodeUC)(nil)

type CreateCodeInput struct {
	// Code is generated when empty.
	Code string `json:"code"`
	// Platform issues the code without an owner. Super-admin only.
	Platform bool `json:"platform"`
}

// CodeView decorates a code with its creator's display name.
type CodeView struct {
	*model.ReferenceCode
	CreatorName string `json:"creator_name"`
}

type RefCodeUseCase interface {
	Create(ctx context.Context, caller *model.Caller, in CreateCodeInput) (*model.ReferenceCode, error)
	List(ctx context.Context, caller *model.Caller) ([]*CodeView, error)
	Update(ctx context.Context, caller *model.Caller, id, code string) (*model.ReferenceCode, error)
	Delete(ctx context.Context, caller *model.Caller, id string) error
	// Validate reports whether a code value exists. Used by the public form.
	Validate(ctx context.Context, code string) (bool, error)
}

type refCodeUC struct {
	codes  repository.ReferenceCodeRepository
	users  repository.UserProfileRepository
	access AccessEngine
	log    *zerolog.Logger
}

func NewRefCodeUseCase(codes repository.ReferenceCodeRepository, users repository.UserProfileRepository, access AccessEngine, logger *zerolog.Logger) *refCodeUC {
	return &refCodeUC{codes: codes, users: users, access: access, log: logger}
}

func (u *refCodeUC) Create(ctx context.Context, caller *model.Caller, in CreateCodeInput) (*model.ReferenceCode, error) {
	defer logging.TraceDuration(u.log, "RefCodeUC.Create")()

	p := profileOf(caller)
	if !u.access.CanIssueReferenceCode(p, in.Platform) {
		return nil, domain.ErrUnauthorized
	}

	value := in.Code
	if value == "" {
		gen, err := model.GenerateReferenceCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		value = gen
	}
	var owner *string
	if !in.Platform {
		id := p.ID
		owner = &id
	}
	code, err := model.NewReferenceCode(value, owner)
	if err != nil {
		return nil, (&domain.ValidationError{}).Add("code", "must be 1-32 characters of A-Z, 0-9 or '-'")
	}

	u.warnDuplicate(ctx, code.Code)
	if err := u.codes.Create(ctx, repository.NoTX, code); err != nil {
		return nil, upstream("create reference code", err)
	}
	logging.With(ctx, u.log).Info().Str("code", code.Code).Bool("platform", code.IsPlatform()).Msg("reference code created")
	return code, nil
}

// warnDuplicate logs and counts a code value that already exists. Duplicates are allowed;
// lookups resolve to the first match.
func (u *refCodeUC) warnDuplicate(ctx context.Context, value string) {
	n, err := u.codes.CountByCode(ctx, repository.NoTX, value)
	if err != nil {
		u.log.Warn().Err(err).Str("code", value).Msg("duplicate check failed")
		return
	}
	if n > 0 {
		metrics.IncDuplicateRefCode()
		logging.With(ctx, u.log).Warn().Str("code", value).Int("existing", n).Msg("reference code value already in use")
	}
}

func (u *refCodeUC) List(ctx context.Context, caller *model.Caller) ([]*CodeView, error) {
	defer logging.TraceDuration(u.log, "RefCodeUC.List")()

	codes, err := u.access.VisibleReferenceCodes(ctx, profileOf(caller))
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	out := make([]*CodeView, 0, len(codes))
	for _, c := range codes {
		out = append(out, &CodeView{ReferenceCode: c, CreatorName: u.creatorName(ctx, c, names)})
	}
	return out, nil
}

func (u *refCodeUC) creatorName(ctx context.Context, c *model.ReferenceCode, cache map[string]string) string {
	if c.IsPlatform() {
		return CreatorSuperAdmin
	}
	if n, ok := cache[*c.CreatedBy]; ok {
		return n
	}
	name := CreatorUnknown
	if p, err := u.users.FindByID(ctx, repository.NoTX, *c.CreatedBy); err == nil {
		name = p.DisplayName()
	}
	cache[*c.CreatedBy] = name
	return name
}

func (u *refCodeUC) load(ctx context.Context, caller *model.Caller, id string) (*model.ReferenceCode, error) {
	code, err := u.codes.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, upstream("find reference code", err)
	}
	if !u.access.CanManageReferenceCode(profileOf(caller), code) {
		return nil, domain.ErrUnauthorized
	}
	return code, nil
}

// Update renames a code. Applications store the old value and stop matching it.
func (u *refCodeUC) Update(ctx context.Context, caller *model.Caller, id, value string) (*model.ReferenceCode, error) {
	defer logging.TraceDuration(u.log, "RefCodeUC.Update")()

	current, err := u.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	norm, err := model.NormalizeReferenceCode(value)
	if err != nil {
		return nil, (&domain.ValidationError{}).Add("code", "must be 1-32 characters of A-Z, 0-9 or '-'")
	}
	if norm == current.Code {
		return current, nil
	}
	u.warnDuplicate(ctx, norm)
	code, err := u.codes.UpdateCode(ctx, repository.NoTX, id, norm)
	if err != nil {
		return nil, upstream("update reference code", err)
	}
	logging.With(ctx, u.log).Info().Str("from", current.Code).Str("to", norm).Msg("reference code renamed")
	return code, nil
}

func (u *refCodeUC) Delete(ctx context.Context, caller *model.Caller, id string) error {
	defer logging.TraceDuration(u.log, "RefCodeUC.Delete")()

	if _, err := u.load(ctx, caller, id); err != nil {
		return err
	}
	if err := u.codes.Delete(ctx, repository.NoTX, id); err != nil {
		return upstream("delete reference code", err)
	}
	return nil
}

func (u *refCodeUC) Validate(ctx context.Context, value string) (bool, error) {
	defer logging.TraceDuration(u.log, "RefCodeUC.Validate")()

	norm, err := model.NormalizeReferenceCode(value)
	if err != nil {
		return false, nil
	}
	_, err = u.codes.FindByCode(ctx, repository.NoTX, norm)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, upstream("find reference code", err)
	}
}
