package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
)

// FieldCipher encrypts a single column value. security.EncryptionService satisfies it.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var _ repository.ApplicationRepository = (*ApplicationRepo)(nil)

// ApplicationRepo stores the applicant phone number encrypted.
type ApplicationRepo struct {
	pool   *pgxpool.Pool
	cipher FieldCipher
}

func NewApplicationRepo(pool *pgxpool.Pool, cipher FieldCipher) *ApplicationRepo {
	return &ApplicationRepo{pool: pool, cipher: cipher}
}

const appCols = `id, name, email, phone_enc, age, nationality, gender, requirement, ref_code_id, status, has_view, submitted_at, created_at, updated_at`

func (r *ApplicationRepo) scan(row scanner) (*model.Application, error) {
	var (
		a              model.Application
		phone          string
		gender, status int16
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &phone, &a.Age, &a.Nationality, &gender, &a.Requirement,
		&a.RefCodeID, &status, &a.HasView, &a.SubmittedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	pt, err := r.cipher.Decrypt(phone)
	if err != nil {
		return nil, fmt.Errorf("decrypt phone of %s: %w", a.ID, err)
	}
	a.Phone = pt
	a.Gender = model.Gender(gender)
	a.Status = model.ApplicationStatus(status)
	return &a, nil
}

func (r *ApplicationRepo) Create(ctx context.Context, tx repository.Tx, a *model.Application) error {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	phone, err := r.cipher.Encrypt(a.Phone)
	if err != nil {
		return fmt.Errorf("encrypt phone: %w", err)
	}
	_, err = q.Exec(ctx, `
INSERT INTO applications (`+appCols+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14);`,
		a.ID, a.Name, a.Email, phone, a.Age, a.Nationality, int16(a.Gender), a.Requirement,
		a.RefCodeID, int16(a.Status), a.HasView, a.SubmittedAt, a.CreatedAt, a.UpdatedAt)
	return mapErr("insert application", err)
}

func (r *ApplicationRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Application, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	a, err := r.scan(q.QueryRow(ctx, `SELECT `+appCols+` FROM applications WHERE id=$1;`, id))
	if err != nil {
		return nil, mapErr("find application", err)
	}
	return a, nil
}

func (r *ApplicationRepo) query(ctx context.Context, tx repository.Tx, conds []string, args []interface{}, filter model.ApplicationFilter) ([]*model.Application, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	if filter.Status != nil {
		args = append(args, int16(*filter.Status))
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}
	sql := `SELECT ` + appCols + ` FROM applications`
	if len(conds) > 0 {
		sql += ` WHERE ` + strings.Join(conds, " AND ")
	}
	sql += ` ORDER BY submitted_at DESC, seq DESC;`

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr("list applications", err)
	}
	defer rows.Close()

	out := make([]*model.Application, 0)
	for rows.Next() {
		a, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w: %v", domain.ErrReadDatabaseRow, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ApplicationRepo) List(ctx context.Context, tx repository.Tx, filter model.ApplicationFilter) ([]*model.Application, error) {
	return r.query(ctx, tx, nil, nil, filter)
}

// ListByRefCodes keeps the document-store cap even though Postgres has none, so the
// access engine behaves identically on every backend.
func (r *ApplicationRepo) ListByRefCodes(ctx context.Context, tx repository.Tx, codes []string, filter model.ApplicationFilter) ([]*model.Application, error) {
	if len(codes) > repository.MaxInQueryValues {
		return nil, fmt.Errorf("list by ref codes (%d values): %w", len(codes), domain.ErrTooManyValues)
	}
	if len(codes) == 0 {
		return []*model.Application{}, nil
	}
	return r.query(ctx, tx, []string{"ref_code_id = ANY($1)"}, []interface{}{codes}, filter)
}

func (r *ApplicationRepo) Update(ctx context.Context, tx repository.Tx, id string, patch model.ApplicationPatch) (*model.Application, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var status *int16
	if patch.Status != nil {
		s := int16(*patch.Status)
		status = &s
	}
	a, err := r.scan(q.QueryRow(ctx, `
UPDATE applications SET
  status     = COALESCE($2, status),
  has_view   = COALESCE($3, has_view),
  updated_at = $4
WHERE id=$1
RETURNING `+appCols+`;`, id, status, patch.HasView, time.Now()))
	if err != nil {
		return nil, mapErr("update application", err)
	}
	return a, nil
}

func (r *ApplicationRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `DELETE FROM applications WHERE id=$1;`, id)
	if err != nil {
		return mapErr("delete application", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepo) Stats(ctx context.Context, tx repository.Tx) (*model.ApplicationStats, error) {
	q, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `
SELECT status, COUNT(*), COUNT(*) FILTER (WHERE NOT has_view)
  FROM applications GROUP BY status;`)
	if err != nil {
		return nil, mapErr("application stats", err)
	}
	defer rows.Close()

	st := &model.ApplicationStats{ByStatus: make(map[model.ApplicationStatus]int)}
	for rows.Next() {
		var (
			status        int16
			total, unread int
		)
		if err := rows.Scan(&status, &total, &unread); err != nil {
			return nil, fmt.Errorf("scan stats: %w: %v", domain.ErrReadDatabaseRow, err)
		}
		st.ByStatus[model.ApplicationStatus(status)] = total
		st.Total += total
		st.Unread += unread
	}
	return st, rows.Err()
}
