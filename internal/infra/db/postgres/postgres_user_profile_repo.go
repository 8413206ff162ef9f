package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
)

// bootstrapLockKey serializes CreateIfEmpty across processes.
const bootstrapLockKey int64 = 0x1A7E_B007

var _ repository.UserProfileRepository = (*UserProfileRepo)(nil)

type UserProfileRepo struct {
	pool *pgxpool.Pool
}

func NewUserProfileRepo(pool *pgxpool.Pool) *UserProfileRepo {
	return &UserProfileRepo{pool: pool}
}

const profileCols = `id, user_id, email, name, role, is_active, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row scanner) (*model.UserProfile, error) {
	var (
		p    model.UserProfile
		role string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Email, &p.Name, &role, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = model.Role(role)
	return &p, nil
}

func (r *UserProfileRepo) Create(ctx context.Context, tx repository.Tx, p *model.UserProfile) error {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `
INSERT INTO user_profiles (`+profileCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`,
		p.ID, p.UserID, p.Email, p.Name, string(p.Role), p.IsActive, p.CreatedAt, p.UpdatedAt)
	return mapErr("insert profile", err)
}

// CreateIfEmpty takes a transaction-scoped advisory lock so that concurrent
// bootstraps in any process see each other's insert.
func (r *UserProfileRepo) CreateIfEmpty(ctx context.Context, tx repository.Tx, p *model.UserProfile) (bool, error) {
	var created bool
	err := inTx(ctx, r.pool, tx, func(ctx context.Context, q querier) error {
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1);`, bootstrapLockKey); err != nil {
			return mapErr("bootstrap lock", err)
		}
		tag, err := q.Exec(ctx, `
INSERT INTO user_profiles (`+profileCols+`)
SELECT $1,$2,$3,$4,$5,$6,$7,$8
 WHERE NOT EXISTS (SELECT 1 FROM user_profiles);`,
			p.ID, p.UserID, p.Email, p.Name, string(p.Role), p.IsActive, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return mapErr("insert default profile", err)
		}
		created = tag.RowsAffected() == 1
		return nil
	})
	return created, err
}

func (r *UserProfileRepo) findOne(ctx context.Context, tx repository.Tx, op, where string, args ...interface{}) (*model.UserProfile, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	p, err := scanProfile(q.QueryRow(ctx, `SELECT `+profileCols+` FROM user_profiles WHERE `+where+` ORDER BY created_at, seq LIMIT 1;`, args...))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return p, nil
}

func (r *UserProfileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserProfile, error) {
	return r.findOne(ctx, tx, "find profile by id", `id=$1`, id)
}

func (r *UserProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	if userID == "" {
		return nil, domain.ErrNotFound
	}
	return r.findOne(ctx, tx, "find profile by user id", `user_id=$1`, userID)
}

func (r *UserProfileRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.UserProfile, error) {
	return r.findOne(ctx, tx, "find profile by email", `lower(email)=lower($1)`, email)
}

func (r *UserProfileRepo) FindDefault(ctx context.Context, tx repository.Tx) (*model.UserProfile, error) {
	return r.findOne(ctx, tx, "find default profile", `user_id='' AND role=$1`, string(model.RoleSuperAdmin))
}

func (r *UserProfileRepo) List(ctx context.Context, tx repository.Tx) ([]*model.UserProfile, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `SELECT `+profileCols+` FROM user_profiles ORDER BY created_at DESC, seq DESC;`)
	if err != nil {
		return nil, mapErr("list profiles", err)
	}
	defer rows.Close()

	out := make([]*model.UserProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *UserProfileRepo) Update(ctx context.Context, tx repository.Tx, id string, patch model.ProfilePatch) (*model.UserProfile, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var role *string
	if patch.Role != nil {
		s := string(*patch.Role)
		role = &s
	}
	row := q.QueryRow(ctx, `
UPDATE user_profiles SET
  email      = COALESCE(btrim($2), email),
  name       = COALESCE(btrim($3), name),
  role       = COALESCE($4, role),
  is_active  = COALESCE($5, is_active),
  updated_at = $6
WHERE id=$1
RETURNING `+profileCols+`;`,
		id, patch.Email, patch.Name, role, patch.IsActive, time.Now())
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapErr("update profile", err)
	}
	return p, nil
}

func (r *UserProfileRepo) LinkIdentity(ctx context.Context, tx repository.Tx, id, userID string) (*model.UserProfile, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := q.QueryRow(ctx, `
UPDATE user_profiles SET user_id=$2, updated_at=$3 WHERE id=$1
RETURNING `+profileCols+`;`, id, userID, time.Now())
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapErr("link identity", err)
	}
	return p, nil
}

func (r *UserProfileRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM user_profiles WHERE id=$1;`, id)
	if err != nil {
		return mapErr("delete profile", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserProfileRepo) IsEmpty(ctx context.Context, tx repository.Tx) (bool, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_profiles);`).Scan(&exists); err != nil {
		return false, mapErr("profiles exist", err)
	}
	return !exists, nil
}
