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

var _ repository.ReferenceCodeRepository = (*ReferenceCodeRepo)(nil)

type ReferenceCodeRepo struct {
	pool *pgxpool.Pool
}

func NewReferenceCodeRepo(pool *pgxpool.Pool) *ReferenceCodeRepo {
	return &ReferenceCodeRepo{pool: pool}
}

const codeCols = `id, code, created_by, created_at, updated_at`

func scanCode(row scanner) (*model.ReferenceCode, error) {
	var c model.ReferenceCode
	if err := row.Scan(&c.ID, &c.Code, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ReferenceCodeRepo) Create(ctx context.Context, tx repository.Tx, c *model.ReferenceCode) error {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, `INSERT INTO reference_codes (`+codeCols+`) VALUES ($1,$2,$3,$4,$5);`,
		c.ID, c.Code, c.CreatedBy, c.CreatedAt, c.UpdatedAt)
	return mapErr("insert reference code", err)
}

func (r *ReferenceCodeRepo) findOne(ctx context.Context, tx repository.Tx, op, where string, arg interface{}) (*model.ReferenceCode, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	c, err := scanCode(q.QueryRow(ctx, `SELECT `+codeCols+` FROM reference_codes WHERE `+where+` ORDER BY created_at, seq LIMIT 1;`, arg))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return c, nil
}

func (r *ReferenceCodeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ReferenceCode, error) {
	return r.findOne(ctx, tx, "find reference code by id", `id=$1`, id)
}

func (r *ReferenceCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ReferenceCode, error) {
	return r.findOne(ctx, tx, "find reference code by value", `code=$1`, code)
}

func (r *ReferenceCodeRepo) CountByCode(ctx context.Context, tx repository.Tx, code string) (int, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM reference_codes WHERE code=$1;`, code).Scan(&n); err != nil {
		return 0, mapErr("count reference codes", err)
	}
	return n, nil
}

func (r *ReferenceCodeRepo) list(ctx context.Context, tx repository.Tx, where string, args ...interface{}) ([]*model.ReferenceCode, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `SELECT `+codeCols+` FROM reference_codes `+where+` ORDER BY created_at DESC, seq DESC;`, args...)
	if err != nil {
		return nil, mapErr("list reference codes", err)
	}
	defer rows.Close()

	out := make([]*model.ReferenceCode, 0)
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference code: %w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ReferenceCodeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.ReferenceCode, error) {
	return r.list(ctx, tx, "")
}

func (r *ReferenceCodeRepo) ListByCreator(ctx context.Context, tx repository.Tx, creatorID string) ([]*model.ReferenceCode, error) {
	return r.list(ctx, tx, `WHERE created_by=$1`, creatorID)
}

func (r *ReferenceCodeRepo) UpdateCode(ctx context.Context, tx repository.Tx, id, code string) (*model.ReferenceCode, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	c, err := scanCode(q.QueryRow(ctx, `
UPDATE reference_codes SET code=$2, updated_at=$3 WHERE id=$1
RETURNING `+codeCols+`;`, id, code, time.Now()))
	if err != nil {
		return nil, mapErr("update reference code", err)
	}
	return c, nil
}

func (r *ReferenceCodeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM reference_codes WHERE id=$1;`, id)
	if err != nil {
		return mapErr("delete reference code", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
