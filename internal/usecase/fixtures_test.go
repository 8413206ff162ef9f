//go:build !integration

package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/db/memory"
	"intake-review/internal/infra/identity"
	"intake-review/internal/infra/logging"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testDefaultEmail = "default@admin.com"

// countingApps records how the access engine talks to the application store.
type countingApps struct {
	*memory.ApplicationRepo

	mu         sync.Mutex
	listCalls  int
	chunkSizes []int
	chunkErr   error
}

func (c *countingApps) List(ctx context.Context, tx repository.Tx, f model.ApplicationFilter) ([]*model.Application, error) {
	c.mu.Lock()
	c.listCalls++
	c.mu.Unlock()
	return c.ApplicationRepo.List(ctx, tx, f)
}

func (c *countingApps) ListByRefCodes(ctx context.Context, tx repository.Tx, codes []string, f model.ApplicationFilter) ([]*model.Application, error) {
	c.mu.Lock()
	c.chunkSizes = append(c.chunkSizes, len(codes))
	err := c.chunkErr
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return c.ApplicationRepo.ListByRefCodes(ctx, tx, codes, f)
}

func (c *countingApps) queries() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listCalls + len(c.chunkSizes)
}

// failingProfiles lets a test break profile creation after identities were created.
type failingProfiles struct {
	*memory.UserProfileRepo
	createErr error
}

func (f *failingProfiles) Create(ctx context.Context, tx repository.Tx, p *model.UserProfile) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.UserProfileRepo.Create(ctx, tx, p)
}

type env struct {
	users   *failingProfiles
	codes   *memory.ReferenceCodeRepo
	apps    *countingApps
	ids     *identity.Provider
	revoker *memory.SessionDenylist

	access       AccessEngine
	bootstrap    BootstrapGuard
	session      SessionUseCase
	profiles     ProfileUseCase
	refcodes     RefCodeUseCase
	applications ApplicationUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := logging.Nop()
	e := &env{
		users:   &failingProfiles{UserProfileRepo: memory.NewUserProfileRepo()},
		codes:   memory.NewReferenceCodeRepo(),
		apps:    &countingApps{ApplicationRepo: memory.NewApplicationRepo()},
		ids:     identity.NewProvider(memory.NewIdentityRepo(), bcrypt.MinCost, log),
		revoker: memory.NewSessionDenylist(),
	}
	e.access = NewAccessEngine(e.codes, e.apps, e.users, log)
	e.bootstrap = NewBootstrapGuard(e.users, e.ids, memory.TxManager{}, testDefaultEmail, "Default Super Admin", log)
	e.session = NewSessionUseCase(e.ids, e.revoker, e.users, e.bootstrap, log)
	e.profiles = NewProfileUseCase(e.users, e.ids, e.access, e.bootstrap, log)
	e.refcodes = NewRefCodeUseCase(e.codes, e.users, e.access, log)
	e.applications = NewApplicationUseCase(e.apps, e.access, log, true)
	return e
}

func (e *env) profile(t *testing.T, name string, role model.Role, active bool) *model.UserProfile {
	t.Helper()
	p, err := model.NewUserProfile("uid-"+name, name+"@example.com", name, role)
	require.NoError(t, err)
	p.IsActive = active
	require.NoError(t, e.users.Create(context.Background(), nil, p))
	return p
}

func (e *env) code(t *testing.T, value string, owner *model.UserProfile) *model.ReferenceCode {
	t.Helper()
	var by *string
	if owner != nil {
		id := owner.ID
		by = &id
	}
	c, err := model.NewReferenceCode(value, by)
	require.NoError(t, err)
	require.NoError(t, e.codes.Create(context.Background(), nil, c))
	return c
}

func (e *env) app(t *testing.T, ref string, at time.Time) *model.Application {
	t.Helper()
	a := model.NewApplication(validInput(ref))
	a.SubmittedAt = at
	require.NoError(t, e.apps.Create(context.Background(), nil, a))
	return a
}

func validInput(ref string) model.ApplicationInput {
	return model.ApplicationInput{
		Name:        "Jane Roe",
		Email:       "jane@example.com",
		Phone:       "+15550109999",
		Age:         30,
		Nationality: "Canadian",
		Gender:      model.GenderFemale,
		Requirement: true,
		RefCode:     ref,
	}
}

func callerOf(p *model.UserProfile) *model.Caller {
	c := &model.Caller{Profile: p}
	if p != nil {
		c.Identity = model.Identity{UID: p.UserID, Email: p.Email}
	}
	return c
}

func appIDs(apps []*model.Application) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.ID)
	}
	return out
}
