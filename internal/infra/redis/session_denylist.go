package redis

import (
	"context"
	"errors"
	"time"

	"intake-review/internal/domain/ports/adapter"
)

const revokedSessionKeyPrefix = "session:revoked:"

var _ adapter.SessionRevoker = (*SessionDenylist)(nil)

// SessionDenylist keeps logged-out session IDs until the token would have expired.
type SessionDenylist struct {
	client RedisClient
}

func NewSessionDenylist(client RedisClient) *SessionDenylist {
	return &SessionDenylist{client: client}
}

func (d *SessionDenylist) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if sessionID == "" || ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, revokedSessionKeyPrefix+sessionID, "1", ttl)
}

func (d *SessionDenylist) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}
	_, err := d.client.Get(ctx, revokedSessionKeyPrefix+sessionID)
	if errors.Is(err, Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
