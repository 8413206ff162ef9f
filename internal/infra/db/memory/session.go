package memory

import (
	"context"
	"sync"
	"time"

	"intake-review/internal/domain/ports/adapter"
)

var (
	_ adapter.SessionRevoker = (*SessionDenylist)(nil)
	_ adapter.RateLimiter    = (*RateLimiter)(nil)
)

// SessionDenylist is the dev-mode stand-in for the Redis denylist.
type SessionDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewSessionDenylist() *SessionDenylist {
	return &SessionDenylist{revoked: make(map[string]time.Time)}
}

func (d *SessionDenylist) Revoke(_ context.Context, sessionID string, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[sessionID] = time.Now().Add(ttl)
	return nil
}

func (d *SessionDenylist) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.revoked[sessionID]
	if !ok {
		return false, nil
	}
	if time.Now().After(exp) {
		delete(d.revoked, sessionID)
		return false, nil
	}
	return true, nil
}

type window struct {
	count int
	reset time.Time
}

// RateLimiter is a fixed-window counter matching the Redis INCR/EXPIRE limiter.
type RateLimiter struct {
	mu   sync.Mutex
	keys map[string]*window
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{keys: make(map[string]*window)}
}

func (r *RateLimiter) Allow(_ context.Context, key string, limit int, win time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	w, ok := r.keys[key]
	if !ok || now.After(w.reset) {
		w = &window{reset: now.Add(win)}
		r.keys[key] = w
	}
	w.count++
	return w.count <= limit, nil
}
