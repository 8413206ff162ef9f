package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
)

var _ repository.IdentityRepository = (*IdentityRepo)(nil)

type IdentityRepo struct {
	mu      sync.RWMutex
	byUID   map[string]*model.IdentityRecord
	byEmail map[string]string
}

func NewIdentityRepo() *IdentityRepo {
	return &IdentityRepo{
		byUID:   make(map[string]*model.IdentityRecord),
		byEmail: make(map[string]string),
	}
}

func copyIdentity(rec *model.IdentityRecord) *model.IdentityRecord {
	cp := *rec
	cp.PasswordHash = append([]byte(nil), rec.PasswordHash...)
	return &cp
}

func (r *IdentityRepo) Create(_ context.Context, _ repository.Tx, rec *model.IdentityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(rec.Email)
	if _, ok := r.byEmail[email]; ok {
		return fmt.Errorf("identity %s: %w", rec.Email, domain.ErrAlreadyExists)
	}
	r.byUID[rec.UID] = copyIdentity(rec)
	r.byEmail[email] = rec.UID
	return nil
}

func (r *IdentityRepo) FindByUID(_ context.Context, _ repository.Tx, uid string) (*model.IdentityRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byUID[uid]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", uid, domain.ErrNotFound)
	}
	return copyIdentity(rec), nil
}

func (r *IdentityRepo) FindByEmail(_ context.Context, _ repository.Tx, email string) (*model.IdentityRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uid, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", email, domain.ErrNotFound)
	}
	return copyIdentity(r.byUID[uid]), nil
}

func (r *IdentityRepo) UpdatePasswordHash(_ context.Context, _ repository.Tx, uid string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byUID[uid]
	if !ok {
		return fmt.Errorf("identity %s: %w", uid, domain.ErrNotFound)
	}
	rec.PasswordHash = append([]byte(nil), hash...)
	rec.UpdatedAt = time.Now()
	return nil
}
