package redisguard_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/redisguard"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGuard_AcquireOnce(t *testing.T) {
	guard := redisguard.New(redisClient(t))
	key := "scan:handover:" + kernel.NewUUID().String()

	first, err := guard.Acquire(t.Context(), key, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := guard.Acquire(t.Context(), key, time.Minute)
	require.NoError(t, err)
	assert.False(t, second)
}

func TestGuard_KeyExpires(t *testing.T) {
	guard := redisguard.New(redisClient(t))
	key := "payment:" + kernel.NewUUID().String()

	ok, err := guard.Acquire(t.Context(), key, 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		ok, err := guard.Acquire(t.Context(), key, time.Minute)
		return err == nil && ok
	}, 2*time.Second, 50*time.Millisecond)
}

func TestGuard_ReleaseAllowsReacquire(t *testing.T) {
	guard := redisguard.New(redisClient(t))
	key := "scan:handover:" + kernel.NewUUID().String()

	ok, err := guard.Acquire(t.Context(), key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, guard.Release(t.Context(), key))

	ok, err = guard.Acquire(t.Context(), key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGuard_ConcurrentCallersOneWinner(t *testing.T) {
	guard := redisguard.New(redisClient(t))
	key := "scan:return:" + kernel.NewUUID().String()

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := guard.Acquire(context.Background(), key, time.Minute); err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestGuard_RejectsBadInput(t *testing.T) {
	guard := redisguard.New(redis.NewClient(&redis.Options{Addr: "localhost:0"}))

	_, err := guard.Acquire(t.Context(), " ", time.Minute)
	require.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = guard.Acquire(t.Context(), "k", 0)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	require.ErrorIs(t, guard.Release(t.Context(), ""), errs.ErrValueIsRequired)
}
