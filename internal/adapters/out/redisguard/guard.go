// Package redisguard deduplicates scans and broker events with Redis SETNX.
package redisguard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fulfillment:idem:"

// Guard implements ports.IdempotencyGuard.
type Guard struct {
	client redis.UniversalClient
}

func New(client redis.UniversalClient) *Guard {
	return &Guard{client: client}
}

// Acquire sets the key only if it is absent and reports whether this call set it.
func (g *Guard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, errs.NewValueIsRequiredError("idempotency key")
	}
	if ttl <= 0 {
		return false, errs.NewValueIsInvalidErrorWithCause("idempotency ttl", fmt.Errorf("%s is not positive", ttl))
	}

	ok, err := g.client.SetNX(ctx, keyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	return ok, nil
}

func (g *Guard) Release(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return errs.NewValueIsRequiredError("idempotency key")
	}
	if err := g.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
