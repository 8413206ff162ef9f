package usecase

import (
	"context"
	"errors"
	"sort"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/logging"
	"intake-review/internal/infra/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	CreatorSuperAdmin = "Super Admin"
	CreatorUnknown    = "Unknown Admin"
)

// Compile-time check
var _ AccessEngine = (*accessEngine)(nil)

// AccessEngine is the single place where privilege is decided. Every read and mutation
// of applications, codes and profiles goes through it.
type AccessEngine interface {
	// VisibleApplications returns the applications caller may see, newest first.
	VisibleApplications(ctx context.Context, caller *model.UserProfile, filter model.ApplicationFilter) ([]*model.Application, error)
	CanMutate(ctx context.Context, caller *model.UserProfile, app *model.Application) (bool, error)
	CanManageProfiles(caller *model.UserProfile) bool
	CanManageReferenceCode(caller *model.UserProfile, code *model.ReferenceCode) bool
	// CanIssueReferenceCode reports whether caller may create a code; platform codes
	// have no owner and are reserved for super-admins.
	CanIssueReferenceCode(caller *model.UserProfile, platform bool) bool
	// VisibleReferenceCodes returns every code for super-admins and owned codes for admins.
	VisibleReferenceCodes(ctx context.Context, caller *model.UserProfile) ([]*model.ReferenceCode, error)
	Capabilities(caller *model.UserProfile) Capabilities
	ResolveCreatorName(ctx context.Context, refCode string) string
}

// Capabilities summarizes what a profile may do.
type Capabilities struct {
	IsAdmin      bool `json:"is_admin"`
	IsSuperAdmin bool `json:"is_super_admin"`
}

type accessEngine struct {
	codes repository.ReferenceCodeRepository
	apps  repository.ApplicationRepository
	users repository.UserProfileRepository
	log   *zerolog.Logger
}

func NewAccessEngine(codes repository.ReferenceCodeRepository, apps repository.ApplicationRepository, users repository.UserProfileRepository, logger *zerolog.Logger) *accessEngine {
	return &accessEngine{codes: codes, apps: apps, users: users, log: logger}
}

func privileged(p *model.UserProfile) bool {
	return p != nil && p.IsActive && p.Role.Valid()
}

func isSuperAdmin(p *model.UserProfile) bool {
	return privileged(p) && p.Role == model.RoleSuperAdmin
}

func (e *accessEngine) VisibleApplications(ctx context.Context, caller *model.UserProfile, filter model.ApplicationFilter) ([]*model.Application, error) {
	defer logging.TraceDuration(e.log, "AccessEngine.VisibleApplications")()

	switch {
	case !privileged(caller):
		metrics.IncAccessDecision("list", "empty")
		return []*model.Application{}, nil
	case caller.Role == model.RoleSuperAdmin:
		metrics.IncAccessDecision("list", "all")
		apps, err := e.apps.List(ctx, repository.NoTX, filter)
		if err != nil {
			return nil, upstream("list applications", err)
		}
		return apps, nil
	}

	values, err := e.ownedCodeValues(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		metrics.IncAccessDecision("list", "empty")
		return []*model.Application{}, nil
	}
	metrics.IncAccessDecision("list", "scoped")
	return e.listByCodes(ctx, values, filter)
}

// ownedCodeValues returns the distinct code values created by profileID.
func (e *accessEngine) ownedCodeValues(ctx context.Context, profileID string) ([]string, error) {
	codes, err := e.codes.ListByCreator(ctx, repository.NoTX, profileID)
	if err != nil {
		return nil, upstream("list reference codes", err)
	}
	seen := make(map[string]struct{}, len(codes))
	values := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c.Code]; ok {
			continue
		}
		seen[c.Code] = struct{}{}
		values = append(values, c.Code)
	}
	return values, nil
}

// listByCodes splits values into store-sized chunks, runs them concurrently and merges
// the results. Chunks are disjoint so no record can appear twice.
func (e *accessEngine) listByCodes(ctx context.Context, values []string, filter model.ApplicationFilter) ([]*model.Application, error) {
	var chunks [][]string
	for start := 0; start < len(values); start += repository.MaxInQueryValues {
		end := start + repository.MaxInQueryValues
		if end > len(values) {
			end = len(values)
		}
		chunks = append(chunks, values[start:end])
	}
	metrics.AddChunkQueries(len(chunks))

	results := make([][]*model.Application, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			apps, err := e.apps.ListByRefCodes(gctx, repository.NoTX, chunk, filter)
			if err != nil {
				return err
			}
			results[i] = apps
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.log.Error().Err(err).Int("chunks", len(chunks)).Msg("scoped application query failed")
		return nil, upstream("list applications by code", err)
	}

	out := make([]*model.Application, 0)
	for _, r := range results {
		out = append(out, r...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (e *accessEngine) CanMutate(ctx context.Context, caller *model.UserProfile, app *model.Application) (bool, error) {
	defer logging.TraceDuration(e.log, "AccessEngine.CanMutate")()

	if !privileged(caller) || app == nil {
		metrics.IncAccessDecision("mutate", "denied")
		return false, nil
	}
	if caller.Role == model.RoleSuperAdmin {
		metrics.IncAccessDecision("mutate", "allowed")
		return true, nil
	}
	values, err := e.ownedCodeValues(ctx, caller.ID)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		if v == app.RefCodeID {
			metrics.IncAccessDecision("mutate", "allowed")
			return true, nil
		}
	}
	metrics.IncAccessDecision("mutate", "denied")
	return false, nil
}

func (e *accessEngine) CanManageProfiles(caller *model.UserProfile) bool {
	ok := isSuperAdmin(caller)
	metrics.IncAccessDecision("profiles", outcome(ok))
	return ok
}

func (e *accessEngine) CanIssueReferenceCode(caller *model.UserProfile, platform bool) bool {
	ok := privileged(caller) && (!platform || caller.Role == model.RoleSuperAdmin)
	metrics.IncAccessDecision("issue_code", outcome(ok))
	return ok
}

func (e *accessEngine) VisibleReferenceCodes(ctx context.Context, caller *model.UserProfile) ([]*model.ReferenceCode, error) {
	defer logging.TraceDuration(e.log, "AccessEngine.VisibleReferenceCodes")()

	var (
		codes []*model.ReferenceCode
		err   error
	)
	switch {
	case isSuperAdmin(caller):
		metrics.IncAccessDecision("list_codes", "all")
		codes, err = e.codes.ListAll(ctx, repository.NoTX)
	case privileged(caller):
		metrics.IncAccessDecision("list_codes", "scoped")
		codes, err = e.codes.ListByCreator(ctx, repository.NoTX, caller.ID)
	default:
		metrics.IncAccessDecision("list_codes", "empty")
		return []*model.ReferenceCode{}, nil
	}
	if err != nil {
		return nil, upstream("list reference codes", err)
	}
	return codes, nil
}

func (e *accessEngine) Capabilities(caller *model.UserProfile) Capabilities {
	return Capabilities{IsAdmin: privileged(caller), IsSuperAdmin: isSuperAdmin(caller)}
}

func (e *accessEngine) CanManageReferenceCode(caller *model.UserProfile, code *model.ReferenceCode) bool {
	ok := isSuperAdmin(caller) || (privileged(caller) && code != nil && code.OwnedBy(caller.ID))
	metrics.IncAccessDecision("manage_code", outcome(ok))
	return ok
}

func outcome(ok bool) string {
	if ok {
		return "allowed"
	}
	return "denied"
}

// ResolveCreatorName is for display only and never feeds an authorization decision.
func (e *accessEngine) ResolveCreatorName(ctx context.Context, refCode string) string {
	if refCode == "" {
		return CreatorUnknown
	}
	code, err := e.codes.FindByCode(ctx, repository.NoTX, refCode)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.log.Warn().Err(err).Str("code", refCode).Msg("resolve creator: code lookup failed")
		}
		return CreatorUnknown
	}
	if code.IsPlatform() {
		return CreatorSuperAdmin
	}
	creator, err := e.users.FindByID(ctx, repository.NoTX, *code.CreatedBy)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			e.log.Warn().Err(err).Str("code", refCode).Msg("resolve creator: profile lookup failed")
		}
		return CreatorUnknown
	}
	return creator.DisplayName()
}
