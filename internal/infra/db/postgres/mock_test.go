//go:build !integration

package postgres

import (
	"context"
	"time"

	"intake-review/internal/domain/model"
	"intake-review/internal/domain/ports/repository"
	red "intake-review/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerProfileRepo mocks the database repository that the profile decorator wraps.
// Embedding the interface makes unset methods panic, which flags unexpected calls.
type mockInnerProfileRepo struct {
	repository.UserProfileRepository

	FindByIDFunc     func(ctx context.Context, tx repository.Tx, id string) (*model.UserProfile, error)
	FindByUserIDFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error)
	UpdateFunc       func(ctx context.Context, tx repository.Tx, id string, patch model.ProfilePatch) (*model.UserProfile, error)
	DeleteFunc       func(ctx context.Context, tx repository.Tx, id string) error
}

func (m *mockInnerProfileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserProfile, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.UserProfile, error) {
	return m.FindByUserIDFunc(ctx, tx, userID)
}
func (m *mockInnerProfileRepo) Update(ctx context.Context, tx repository.Tx, id string, patch model.ProfilePatch) (*model.UserProfile, error) {
	return m.UpdateFunc(ctx, tx, id, patch)
}
func (m *mockInnerProfileRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	return m.DeleteFunc(ctx, tx, id)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc        func(ctx context.Context, key string) (string, error)
	SetFunc        func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc        func(ctx context.Context, keys ...string) error
	PingFunc       func(ctx context.Context) error
	IncrWindowFunc func(ctx context.Context, key string, window time.Duration) (int64, error)
	CloseFunc      func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	return m.IncrWindowFunc(ctx, key, window)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
