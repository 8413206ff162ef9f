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

var _ repository.ApplicationRepository = (*ApplicationRepo)(nil)

type appEntry struct {
	key string
	a   model.Application
}

// ApplicationRepo enforces the same set-membership cap as the document store it stands in for.
type ApplicationRepo struct {
	mu   sync.RWMutex
	rows map[string]*appEntry
	seq  *seq
}

func NewApplicationRepo() *ApplicationRepo {
	return &ApplicationRepo{rows: make(map[string]*appEntry), seq: newSeq()}
}

func (r *ApplicationRepo) Create(_ context.Context, _ repository.Tx, a *model.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[a.ID]; ok {
		return fmt.Errorf("application %s: %w", a.ID, domain.ErrAlreadyExists)
	}
	r.rows[a.ID] = &appEntry{key: r.seq.next(a.SubmittedAt), a: *a}
	return nil
}

func (r *ApplicationRepo) FindByID(_ context.Context, _ repository.Tx, id string) (*model.Application, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	cp := e.a
	return &cp, nil
}

func (r *ApplicationRepo) List(_ context.Context, _ repository.Tx, filter model.ApplicationFilter) ([]*model.Application, error) {
	return r.query(func(a *model.Application) bool { return filter.Match(a) }), nil
}

func (r *ApplicationRepo) ListByRefCodes(_ context.Context, _ repository.Tx, codes []string, filter model.ApplicationFilter) ([]*model.Application, error) {
	if len(codes) > repository.MaxInQueryValues {
		return nil, fmt.Errorf("list by ref codes (%d values): %w", len(codes), domain.ErrTooManyValues)
	}
	if len(codes) == 0 {
		return nil, nil
	}
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return r.query(func(a *model.Application) bool {
		_, ok := set[a.RefCodeID]
		return ok && filter.Match(a)
	}), nil
}

func (r *ApplicationRepo) query(match func(*model.Application) bool) []*model.Application {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]*appEntry, 0, len(r.rows))
	for _, e := range r.rows {
		if match(&e.a) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		ai, aj := entries[i].a.SubmittedAt, entries[j].a.SubmittedAt
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return entries[i].key > entries[j].key
	})
	out := make([]*model.Application, 0, len(entries))
	for _, e := range entries {
		cp := e.a
		out = append(out, &cp)
	}
	return out
}

func (r *ApplicationRepo) Update(_ context.Context, _ repository.Tx, id string, patch model.ApplicationPatch) (*model.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	patch.Apply(&e.a, time.Now())
	cp := e.a
	return &cp, nil
}

func (r *ApplicationRepo) Delete(_ context.Context, _ repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("application %s: %w", id, domain.ErrNotFound)
	}
	delete(r.rows, id)
	return nil
}

func (r *ApplicationRepo) Stats(_ context.Context, _ repository.Tx) (*model.ApplicationStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := &model.ApplicationStats{ByStatus: make(map[model.ApplicationStatus]int)}
	for _, e := range r.rows {
		st.ByStatus[e.a.Status]++
		if !e.a.HasView {
			st.Unread++
		}
		st.Total++
	}
	return st, nil
}
