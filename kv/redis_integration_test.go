//go:build integration
// +build integration

package kv

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newLiveRedis connects to REDIS_ADDR and skips when it is unset.
func newLiveRedis(t *testing.T) *RedisStore {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis at %s unreachable: %v", addr, err)
	}

	prefix := fmt.Sprintf("la-it-%d", time.Now().UnixNano())
	return NewRedisStore(client, prefix)
}

func TestLiveRedisCompareAndSwap(t *testing.T) {
	testCompareAndSwap(t, newLiveRedis(t))
}

func TestLiveRedisConcurrentAppendsAreNotLost(t *testing.T) {
	s := newLiveRedis(t)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for {
				prev, ok, err := s.Get(ctx, "users")
				if err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
				swapped, err := s.CompareAndSwap(ctx, "users", prev, ok, prev+fmt.Sprintf("%02d;", w))
				if err != nil {
					t.Errorf("CompareAndSwap failed: %v", err)
					return
				}
				if swapped {
					return
				}
			}
		}(w)
	}
	wg.Wait()

	got, _, err := s.Get(ctx, "users")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != writers*3 {
		t.Fatalf("expected %d appended entries, got %q", writers, got)
	}
	_ = s.Remove(ctx, "users")
}
