// Package memory holds mutex-guarded in-process repositories used for dev mode and tests.
// Every method returns copies; callers never share state with the store.
package memory

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"intake-review/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
)

// seq hands out monotonic ULIDs that record insertion order. Document stores order by
// insertion time; the ULID breaks ties between records created in the same instant.
type seq struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newSeq() *seq {
	return &seq{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (s *seq) next(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

// TxManager runs fn directly. The memory repositories serialize through their own locks.
type TxManager struct{}

var _ repository.TransactionManager = TxManager{}

func (TxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
