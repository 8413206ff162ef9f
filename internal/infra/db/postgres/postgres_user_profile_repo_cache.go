package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
	"intake-review/internal/infra/metrics"
	red "intake-review/internal/infra/redis"
)

var _ repository.UserProfileRepository = (*profileRepoCacheDecorator)(nil)

// profileRepoCacheDecorator caches the per-request profile lookups. Every write
// invalidates both keys of the affected profile so privilege changes apply on the
// caller's next request.
type profileRepoCacheDecorator struct {
	inner repository.UserProfileRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewProfileRepoCacheDecorator(inner repository.UserProfileRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserProfileRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &profileRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func profileIDKey(id string) string   { return fmt.Sprintf("profile:id:%s", id) }
func profileUIDKey(uid string) string { return fmt.Sprintf("profile:uid:%s", uid) }

func (d *profileRepoCacheDecorator) get(ctx context.Context, key string) (*model.UserProfile, bool) {
	val, err := d.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, red.Nil) {
			d.log.Warn().Err(err).Str("key", key).Msg("profile cache read failed")
		}
		return nil, false
	}
	var p model.UserProfile
	if json.Unmarshal([]byte(val), &p) != nil {
		return nil, false
	}
	return &p, true
}

func (d *profileRepoCacheDecorator) put(ctx context.Context, p *model.UserProfile) {
	bytes, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, profileIDKey(p.ID), bytes, d.ttl)
	if p.UserID != "" {
		_ = d.cache.Set(ctx, profileUIDKey(p.UserID), bytes, d.ttl)
	}
}

func (d *profileRepoCacheDecorator) invalidate(ctx context.Context, p *model.UserProfile) {
	keys := []string{profileIDKey(p.ID)}
	if p.UserID != "" {
		keys = append(keys, profileUIDKey(p.UserID))
	}
	if err := d.cache.Del(ctx, keys...); err != nil {
		d.log.Warn().Err(err).Str("profile_id", p.ID).Msg("profile cache invalidation failed")
	}
}

func (d *profileRepoCacheDecorator) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	p, ok := d.get(ctx, profileUIDKey(userID))
	metrics.ObserveProfileCache(metrics.CacheProfileByUserID, ok)
	if ok {
		return p, nil
	}
	p, err := d.inner.FindByUserID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	d.put(ctx, p)
	return p, nil
}

func (d *profileRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserProfile, error) {
	p, ok := d.get(ctx, profileIDKey(id))
	metrics.ObserveProfileCache(metrics.CacheProfileByID, ok)
	if ok {
		return p, nil
	}
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.put(ctx, p)
	return p, nil
}

func (d *profileRepoCacheDecorator) Update(ctx context.Context, tx repository.Tx, id string, patch model.ProfilePatch) (*model.UserProfile, error) {
	p, err := d.inner.Update(ctx, tx, id, patch)
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, p)
	return p, nil
}

func (d *profileRepoCacheDecorator) LinkIdentity(ctx context.Context, tx repository.Tx, id, userID string) (*model.UserProfile, error) {
	p, err := d.inner.LinkIdentity(ctx, tx, id, userID)
	if err != nil {
		return nil, err
	}
	d.invalidate(ctx, p)
	return p, nil
}

func (d *profileRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	p, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := d.inner.Delete(ctx, tx, id); err != nil {
		return err
	}
	d.invalidate(ctx, p)
	return nil
}

// Pass-through methods that don't need caching
func (d *profileRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, p *model.UserProfile) error {
	return d.inner.Create(ctx, tx, p)
}

func (d *profileRepoCacheDecorator) CreateIfEmpty(ctx context.Context, tx repository.Tx, p *model.UserProfile) (bool, error) {
	return d.inner.CreateIfEmpty(ctx, tx, p)
}

func (d *profileRepoCacheDecorator) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.UserProfile, error) {
	return d.inner.FindByEmail(ctx, tx, email)
}

func (d *profileRepoCacheDecorator) FindDefault(ctx context.Context, tx repository.Tx) (*model.UserProfile, error) {
	return d.inner.FindDefault(ctx, tx)
}

func (d *profileRepoCacheDecorator) List(ctx context.Context, tx repository.Tx) ([]*model.UserProfile, error) {
	return d.inner.List(ctx, tx)
}

func (d *profileRepoCacheDecorator) IsEmpty(ctx context.Context, tx repository.Tx) (bool, error) {
	return d.inner.IsEmpty(ctx, tx)
}
