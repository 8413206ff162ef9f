package usecase

import (
	"context"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/logging"
	"intake-review/internal/infra/metrics"
	"intake-review/internal/validation"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ApplicationUseCase = (*applicationUC)(nil)

// ApplicationView decorates an application with who recruited the applicant.
type ApplicationView struct {
	*model.Application
	ReferredBy string `json:"referred_by"`
}

// ApplicationUseCase covers public submission and reviewer actions. Reads outside the
// caller's visibility yield empty results or NotFound; mutations yield Unauthorized.
type ApplicationUseCase interface {
	Submit(ctx context.Context, in model.ApplicationInput) (*model.Application, error)
	List(ctx context.Context, caller *model.Caller, filter model.ApplicationFilter) ([]*ApplicationView, error)
	// Get returns one application and marks it viewed.
	Get(ctx context.Context, caller *model.Caller, id string) (*ApplicationView, error)
	UpdateStatus(ctx context.Context, caller *model.Caller, id string, status model.ApplicationStatus) (*model.Application, error)
	MarkViewed(ctx context.Context, caller *model.Caller, id string) (*model.Application, error)
	MarkUnread(ctx context.Context, caller *model.Caller, id string) (*model.Application, error)
	Delete(ctx context.Context, caller *model.Caller, id string) error
	Stats(ctx context.Context) (*model.ApplicationStats, error)
}

type applicationUC struct {
	apps   repository.ApplicationRepository
	access AccessEngine
	log    *zerolog.Logger
	dev    bool
}

func NewApplicationUseCase(apps repository.ApplicationRepository, access AccessEngine, logger *zerolog.Logger, dev bool) *applicationUC {
	return &applicationUC{apps: apps, access: access, log: logger, dev: dev}
}

func (u *applicationUC) Submit(ctx context.Context, in model.ApplicationInput) (*model.Application, error) {
	defer logging.TraceDuration(u.log, "ApplicationUC.Submit")()

	if err := validation.CheckApplication(in); err != nil {
		metrics.IncSubmission("invalid")
		return nil, err
	}
	app := model.NewApplication(in)
	if err := u.apps.Create(ctx, repository.NoTX, app); err != nil {
		metrics.IncSubmission("failed")
		return nil, upstream("create application", err)
	}
	metrics.IncSubmission("accepted")
	logging.With(ctx, u.log).Info().
		Str("application_id", app.ID).
		Str("email", logging.Redact(app.Email, u.dev)).
		Str("ref_code", app.RefCodeID).
		Msg("application submitted")
	return app, nil
}

func (u *applicationUC) List(ctx context.Context, caller *model.Caller, filter model.ApplicationFilter) ([]*ApplicationView, error) {
	defer logging.TraceDuration(u.log, "ApplicationUC.List")()

	apps, err := u.access.VisibleApplications(ctx, profileOf(caller), filter)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	out := make([]*ApplicationView, 0, len(apps))
	for _, a := range apps {
		out = append(out, u.view(ctx, a, names))
	}
	return out, nil
}

func (u *applicationUC) view(ctx context.Context, a *model.Application, names map[string]string) *ApplicationView {
	name, ok := names[a.RefCodeID]
	if !ok {
		name = u.access.ResolveCreatorName(ctx, a.RefCodeID)
		names[a.RefCodeID] = name
	}
	return &ApplicationView{Application: a, ReferredBy: name}
}

// authorize loads id and returns denied when caller cannot act on it.
func (u *applicationUC) authorize(ctx context.Context, caller *model.Caller, id string, denied error) (*model.Application, error) {
	app, err := u.apps.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, upstream("find application", err)
	}
	ok, err := u.access.CanMutate(ctx, profileOf(caller), app)
	if err != nil {
		return nil, err
	}
	if !ok {
		logging.With(ctx, u.log).Warn().Str("application_id", id).Msg("application access denied")
		return nil, denied
	}
	return app, nil
}

func (u *applicationUC) Get(ctx context.Context, caller *model.Caller, id string) (*ApplicationView, error) {
	defer logging.TraceDuration(u.log, "ApplicationUC.Get")()

	app, err := u.authorize(ctx, caller, id, domain.ErrNotFound)
	if err != nil {
		return nil, err
	}
	if !app.HasView {
		viewed := true
		if app, err = u.apps.Update(ctx, repository.NoTX, id, model.ApplicationPatch{HasView: &viewed}); err != nil {
			return nil, upstream("mark viewed", err)
		}
	}
	return u.view(ctx, app, map[string]string{}), nil
}

func (u *applicationUC) mutate(ctx context.Context, caller *model.Caller, id, action string, patch model.ApplicationPatch) (*model.Application, error) {
	if _, err := u.authorize(ctx, caller, id, domain.ErrUnauthorized); err != nil {
		return nil, err
	}
	app, err := u.apps.Update(ctx, repository.NoTX, id, patch)
	if err != nil {
		return nil, upstream("update application", err)
	}
	metrics.IncApplicationMutation(action)
	return app, nil
}

func (u *applicationUC) UpdateStatus(ctx context.Context, caller *model.Caller, id string, status model.ApplicationStatus) (*model.Application, error) {
	defer logging.TraceDuration(u.log, "ApplicationUC.UpdateStatus")()

	if !status.Valid() {
		return nil, (&domain.ValidationError{}).Add("status", "must be SUBMITTED, APPROVED or REJECTED")
	}
	app, err := u.mutate(ctx, caller, id, "status", model.ApplicationPatch{Status: &status})
	if err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("application_id", id).Str("status", status.String()).Msg("application status set")
	return app, nil
}

func (u *applicationUC) MarkViewed(ctx context.Context, caller *model.Caller, id string) (*model.Application, error) {
	defer logging.TraceDuration(u.log, "ApplicationUC.MarkViewed")()
	viewed := true
	return u.mutate(ctx, caller, id, "read", model.ApplicationPatch{HasView: &viewed})
}

func (u *applicationUC) MarkUnread(ctx context.Context, caller *model.Caller, id string) (*model.Application, error) {
	defer logging.TraceDuration(u.log, "ApplicationUC.MarkUnread")()
	viewed := false
	return u.mutate(ctx, caller, id, "unread", model.ApplicationPatch{HasView: &viewed})
}

func (u *applicationUC) Delete(ctx context.Context, caller *model.Caller, id string) error {
	defer logging.TraceDuration(u.log, "ApplicationUC.Delete")()

	if _, err := u.authorize(ctx, caller, id, domain.ErrUnauthorized); err != nil {
		return err
	}
	if err := u.apps.Delete(ctx, repository.NoTX, id); err != nil {
		return upstream("delete application", err)
	}
	metrics.IncApplicationMutation("delete")
	logging.With(ctx, u.log).Info().Str("application_id", id).Msg("application deleted")
	return nil
}

func (u *applicationUC) Stats(ctx context.Context) (*model.ApplicationStats, error) {
	defer logging.TraceDuration(u.log, "ApplicationUC.Stats")()
	st, err := u.apps.Stats(ctx, repository.NoTX)
	if err != nil {
		return nil, upstream("application stats", err)
	}
	return st, nil
}
