package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
)

var _ repository.UserProfileRepository = (*UserProfileRepo)(nil)

type profileEntry struct {
	key string
	p   model.UserProfile
}

type UserProfileRepo struct {
	mu   sync.RWMutex
	rows map[string]*profileEntry
	seq  *seq
}

func NewUserProfileRepo() *UserProfileRepo {
	return &UserProfileRepo{rows: make(map[string]*profileEntry), seq: newSeq()}
}

func (r *UserProfileRepo) Create(_ context.Context, _ repository.Tx, p *model.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(p)
}

func (r *UserProfileRepo) insertLocked(p *model.UserProfile) error {
	if _, ok := r.rows[p.ID]; ok {
		return fmt.Errorf("profile %s: %w", p.ID, domain.ErrAlreadyExists)
	}
	r.rows[p.ID] = &profileEntry{key: r.seq.next(p.CreatedAt), p: *p}
	return nil
}

func (r *UserProfileRepo) CreateIfEmpty(_ context.Context, _ repository.Tx, p *model.UserProfile) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) > 0 {
		return false, nil
	}
	if err := r.insertLocked(p); err != nil {
		return false, err
	}
	return true, nil
}

func (r *UserProfileRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	cp := e.p
	return &cp, nil
}

func (r *UserProfileRepo) FindByUserID(_ context.Context, _ repository.Tx, userID string) (*model.UserProfile, error) {
	return r.first(func(p *model.UserProfile) bool { return p.UserID == userID })
}

func (r *UserProfileRepo) FindByEmail(_ context.Context, _ repository.Tx, email string) (*model.UserProfile, error) {
	email = strings.TrimSpace(email)
	return r.first(func(p *model.UserProfile) bool { return strings.EqualFold(p.Email, email) })
}

func (r *UserProfileRepo) FindDefault(_ context.Context, _ repository.Tx) (*model.UserProfile, error) {
	return r.first(func(p *model.UserProfile) bool { return p.UserID == "" && p.Role == model.RoleSuperAdmin })
}

// first scans in insertion order so duplicates resolve to the oldest record.
func (r *UserProfileRepo) first(match func(*model.UserProfile) bool) (*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sortedLocked(false) {
		if match(&e.p) {
			cp := e.p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserProfileRepo) sortedLocked(desc bool) []*profileEntry {
	out := make([]*profileEntry, 0, len(r.rows))
	for _, e := range r.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].key > out[j].key
		}
		return out[i].key < out[j].key
	})
	return out
}

func (r *UserProfileRepo) List(_ context.Context, _ repository.Tx) ([]*model.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.sortedLocked(true)
	out := make([]*model.UserProfile, 0, len(entries))
	for _, e := range entries {
		cp := e.p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *UserProfileRepo) Update(_ context.Context, _ repository.Tx, id string, patch model.ProfilePatch) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	patch.Apply(&e.p, time.Now())
	cp := e.p
	return &cp, nil
}

func (r *UserProfileRepo) LinkIdentity(_ context.Context, _ repository.Tx, id, userID string) (*model.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	e.p.UserID = userID
	e.p.UpdatedAt = time.Now()
	cp := e.p
	return &cp, nil
}

func (r *UserProfileRepo) Delete(_ context.Context, _ repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	delete(r.rows, id)
	return nil
}

func (r *UserProfileRepo) IsEmpty(_ context.Context, _ repository.Tx) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows) == 0, nil
}
