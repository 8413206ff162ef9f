//go:build integration

package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/security"
)

func TestUserProfileRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewUserProfileRepo(testPool)
	ctx := context.Background()

	t.Run("CreateIfEmpty inserts exactly once under contention", func(t *testing.T) {
		cleanup(t)
		var wg sync.WaitGroup
		var mu sync.Mutex
		inserted := 0
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p, _ := model.NewUserProfile("", "default@admin.com", "Default Super Admin", model.RoleSuperAdmin)
				ok, err := repo.CreateIfEmpty(ctx, nil, p)
				assert.NoError(t, err)
				if ok {
					mu.Lock()
					inserted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, inserted)

		def, err := repo.FindDefault(ctx, nil)
		require.NoError(t, err)
		assert.True(t, def.IsActive)
		empty, err := repo.IsEmpty(ctx, nil)
		require.NoError(t, err)
		assert.False(t, empty)
	})

	t.Run("CreateIfEmpty joins a caller transaction", func(t *testing.T) {
		cleanup(t)
		tm := NewTxManager(testPool)
		p, _ := model.NewUserProfile("", "default@admin.com", "", model.RoleSuperAdmin)
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			ok, err := repo.CreateIfEmpty(ctx, tx, p)
			assert.True(t, ok)
			return err
		})
		require.NoError(t, err)
	})

	t.Run("CRUD and first-match lookups", func(t *testing.T) {
		cleanup(t)
		a, _ := model.NewUserProfile("uid-a", "dup@example.com", "A", model.RoleAdmin)
		b, _ := model.NewUserProfile("uid-b", "dup@example.com", "B", model.RoleAdmin)
		b.CreatedAt = a.CreatedAt.Add(time.Second)
		require.NoError(t, repo.Create(ctx, nil, a))
		require.NoError(t, repo.Create(ctx, nil, b))

		got, err := repo.FindByEmail(ctx, nil, "DUP@example.com")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)

		all, err := repo.List(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, b.ID, all[0].ID)

		name := "  Renamed  "
		role := model.RoleSuperAdmin
		upd, err := repo.Update(ctx, nil, a.ID, model.ProfilePatch{Name: &name, Role: &role})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", upd.Name)
		assert.Equal(t, model.RoleSuperAdmin, upd.Role)
		assert.Equal(t, "dup@example.com", upd.Email)

		linked, err := repo.LinkIdentity(ctx, nil, a.ID, "uid-new")
		require.NoError(t, err)
		assert.Equal(t, "uid-new", linked.UserID)

		require.NoError(t, repo.Delete(ctx, nil, a.ID))
		assert.ErrorIs(t, repo.Delete(ctx, nil, a.ID), domain.ErrNotFound)
		_, err = repo.FindByUserID(ctx, nil, "uid-new")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestReferenceCodeRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewReferenceCodeRepo(testPool)
	ctx := context.Background()
	cleanup(t)

	owner := "profile-1"
	first, _ := model.NewReferenceCode("DUP1", &owner)
	second, _ := model.NewReferenceCode("DUP1", nil)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, nil, first))
	require.NoError(t, repo.Create(ctx, nil, second))

	n, err := repo.CountByCode(ctx, nil, "DUP1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.FindByCode(ctx, nil, "DUP1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, owner, *got.CreatedBy)

	platform, err := repo.FindByID(ctx, nil, second.ID)
	require.NoError(t, err)
	assert.True(t, platform.IsPlatform())

	mine, err := repo.ListByCreator(ctx, nil, owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := repo.ListAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)

	upd, err := repo.UpdateCode(ctx, nil, first.ID, "NEW1")
	require.NoError(t, err)
	assert.Equal(t, "NEW1", upd.Code)
	assert.True(t, upd.UpdatedAt.After(first.UpdatedAt) || upd.UpdatedAt.Equal(first.UpdatedAt))

	require.NoError(t, repo.Delete(ctx, nil, first.ID))
	_, err = repo.FindByID(ctx, nil, first.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplicationRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	enc, err := security.NewEncryptionService("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	repo := NewApplicationRepo(testPool, enc)
	ctx := context.Background()
	cleanup(t)

	base := time.Now().Add(-time.Hour)
	var created []*model.Application
	for i := 0; i < 12; i++ {
		a := model.NewApplication(model.ApplicationInput{
			Name: fmt.Sprintf("Applicant %d", i), Email: "x@example.com", Phone: "+15550100000",
			Age: 30, Nationality: "NL", Gender: model.GenderMale, Requirement: true,
			RefCode: fmt.Sprintf("C%02d", i),
		})
		a.SubmittedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, nil, a))
		created = append(created, a)
	}

	t.Run("phone is encrypted at rest", func(t *testing.T) {
		var raw string
		require.NoError(t, testPool.QueryRow(ctx, `SELECT phone_enc FROM applications WHERE id=$1`, created[0].ID).Scan(&raw))
		assert.NotEqual(t, "+15550100000", raw)

		got, err := repo.FindByID(ctx, nil, created[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "+15550100000", got.Phone)
		assert.Equal(t, model.GenderMale, got.Gender)
	})

	t.Run("set membership is capped", func(t *testing.T) {
		codes := make([]string, 11)
		_, err := repo.ListByRefCodes(ctx, nil, codes, model.ApplicationFilter{})
		assert.ErrorIs(t, err, domain.ErrTooManyValues)
	})

	t.Run("list by codes newest first with status filter", func(t *testing.T) {
		approved := model.StatusApproved
		_, err := repo.Update(ctx, nil, created[1].ID, model.ApplicationPatch{Status: &approved})
		require.NoError(t, err)

		got, err := repo.ListByRefCodes(ctx, nil, []string{"C00", "C01", "C02"}, model.ApplicationFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, created[2].ID, got[0].ID)

		got, err = repo.ListByRefCodes(ctx, nil, []string{"C00", "C01", "C02"}, model.ApplicationFilter{Status: &approved})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, created[1].ID, got[0].ID)

		all, err := repo.List(ctx, nil, model.ApplicationFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 12)
	})

	t.Run("viewed flag and stats", func(t *testing.T) {
		viewed := true
		got, err := repo.Update(ctx, nil, created[3].ID, model.ApplicationPatch{HasView: &viewed})
		require.NoError(t, err)
		assert.True(t, got.HasView)

		st, err := repo.Stats(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 12, st.Total)
		assert.Equal(t, 11, st.Unread)
		assert.Equal(t, 1, st.ByStatus[model.StatusApproved])
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, nil, created[0].ID))
		assert.ErrorIs(t, repo.Delete(ctx, nil, created[0].ID), domain.ErrNotFound)
	})
}

func TestIdentityRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewIdentityRepo(testPool)
	ctx := context.Background()
	cleanup(t)

	now := time.Now()
	rec := &model.IdentityRecord{
		Identity:     model.Identity{UID: "uid-1", Email: "Admin@Example.com", CreatedAt: now},
		PasswordHash: []byte("hash"),
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(ctx, nil, rec))

	dup := *rec
	dup.UID = "uid-2"
	dup.Email = "admin@example.com"
	assert.ErrorIs(t, repo.Create(ctx, nil, &dup), domain.ErrAlreadyExists)

	got, err := repo.FindByEmail(ctx, nil, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", got.UID)

	require.NoError(t, repo.UpdatePasswordHash(ctx, nil, "uid-1", []byte("hash2")))
	got, err = repo.FindByUID(ctx, nil, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hash2"), got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, nil, "missing", nil), domain.ErrNotFound)
}
