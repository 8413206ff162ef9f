package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"intake-review/internal/domain"
	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
)

var _ repository.ReferenceCodeRepository = (*ReferenceCodeRepo)(nil)

type codeEntry struct {
	key string
	c   model.ReferenceCode
}

type ReferenceCodeRepo struct {
	mu   sync.RWMutex
	rows map[string]*codeEntry
	seq  *seq
}

func NewReferenceCodeRepo() *ReferenceCodeRepo {
	return &ReferenceCodeRepo{rows: make(map[string]*codeEntry), seq: newSeq()}
}

func copyCode(c model.ReferenceCode) *model.ReferenceCode {
	c.CreatedBy = cloneStr(c.CreatedBy)
	return &c
}

func (r *ReferenceCodeRepo) Create(_ context.Context, _ repository.Tx, c *model.ReferenceCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[c.ID]; ok {
		return fmt.Errorf("reference code %s: %w", c.ID, domain.ErrAlreadyExists)
	}
	r.rows[c.ID] = &codeEntry{key: r.seq.next(c.CreatedAt), c: *copyCode(*c)}
	return nil
}

func (r *ReferenceCodeRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.ReferenceCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("reference code %s: %w", id, domain.ErrNotFound)
	}
	return copyCode(e.c), nil
}

func (r *ReferenceCodeRepo) FindByCode(_ context.Context, _ repository.Tx, code string) (*model.ReferenceCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.sortedLocked(false) {
		if e.c.Code == code {
			return copyCode(e.c), nil
		}
	}
	return nil, fmt.Errorf("reference code %q: %w", code, domain.ErrNotFound)
}

func (r *ReferenceCodeRepo) CountByCode(_ context.Context, _ repository.Tx, code string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.rows {
		if e.c.Code == code {
			n++
		}
	}
	return n, nil
}

func (r *ReferenceCodeRepo) sortedLocked(desc bool) []*codeEntry {
	out := make([]*codeEntry, 0, len(r.rows))
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

func (r *ReferenceCodeRepo) list(match func(*model.ReferenceCode) bool) []*model.ReferenceCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.ReferenceCode
	for _, e := range r.sortedLocked(true) {
		if match(&e.c) {
			out = append(out, copyCode(e.c))
		}
	}
	return out
}

func (r *ReferenceCodeRepo) ListAll(_ context.Context, _ repository.Tx) ([]*model.ReferenceCode, error) {
	return r.list(func(*model.ReferenceCode) bool { return true }), nil
}

func (r *ReferenceCodeRepo) ListByCreator(_ context.Context, _ repository.Tx, creatorID string) ([]*model.ReferenceCode, error) {
	return r.list(func(c *model.ReferenceCode) bool { return c.OwnedBy(creatorID) }), nil
}

func (r *ReferenceCodeRepo) UpdateCode(_ context.Context, _ repository.Tx, id, code string) (*model.ReferenceCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("reference code %s: %w", id, domain.ErrNotFound)
	}
	e.c.Code = code
	e.c.UpdatedAt = time.Now()
	return copyCode(e.c), nil
}

func (r *ReferenceCodeRepo) Delete(_ context.Context, _ repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("reference code %s: %w", id, domain.ErrNotFound)
	}
	delete(r.rows, id)
	return nil
}
