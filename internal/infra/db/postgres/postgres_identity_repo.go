package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
)

var _ repository.IdentityRepository = (*IdentityRepo)(nil)

type IdentityRepo struct {
	pool *pgxpool.Pool
}

func NewIdentityRepo(pool *pgxpool.Pool) *IdentityRepo {
	return &IdentityRepo{pool: pool}
}

const identityCols = `uid, email, display_name, password_hash, created_at, updated_at`

func scanIdentity(row scanner) (*model.IdentityRecord, error) {
	var rec model.IdentityRecord
	if err := row.Scan(&rec.UID, &rec.Email, &rec.DisplayName, &rec.PasswordHash, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *IdentityRepo) Create(ctx context.Context, tx repository.Tx, rec *model.IdentityRecord) error {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `INSERT INTO identities (`+identityCols+`) VALUES ($1,$2,$3,$4,$5,$6);`,
		rec.UID, rec.Email, rec.DisplayName, rec.PasswordHash, rec.CreatedAt, rec.UpdatedAt)
	return mapErr("insert identity", err)
}

func (r *IdentityRepo) FindByUID(ctx context.Context, tx repository.Tx, uid string) (*model.IdentityRecord, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rec, err := scanIdentity(q.QueryRow(ctx, `SELECT `+identityCols+` FROM identities WHERE uid=$1;`, uid))
	if err != nil {
		return nil, mapErr("find identity", err)
	}
	return rec, nil
}

func (r *IdentityRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.IdentityRecord, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rec, err := scanIdentity(q.QueryRow(ctx, `SELECT `+identityCols+` FROM identities WHERE lower(email)=lower($1);`, email))
	if err != nil {
		return nil, mapErr("find identity by email", err)
	}
	return rec, nil
}

func (r *IdentityRepo) UpdatePasswordHash(ctx context.Context, tx repository.Tx, uid string, hash []byte) error {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `UPDATE identities SET password_hash=$2, updated_at=$3 WHERE uid=$1;`, uid, hash, time.Now())
	if err != nil {
		return mapErr("update password hash", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
