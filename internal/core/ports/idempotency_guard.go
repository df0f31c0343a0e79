package ports

import (
	"context"
	"time"
)

// IdempotencyGuard remembers keys for a while. Acquire reports true only for the first
// caller of a key within ttl.
type IdempotencyGuard interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key so that a failed attempt can be repeated.
	Release(ctx context.Context, key string) error
}
