package lock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/lock"
)

func newRedisLocker(t *testing.T, ttl time.Duration) (*lock.RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger, _ := test.NewNullLogger()
	return lock.NewRedisLocker(rdb, ttl, logger), mr
}

// TestRedisLocker tests the lock shared between server instances.
//
// WHY: Two instances recomputing the same user would read each other's
// half-written months and release each other's artifacts. The lock must
// hold for as long as its holder runs, however long rendering takes.
func TestRedisLocker(t *testing.T) {
	ctx := context.Background()
	key := lock.UserKey("u1")

	t.Run("second acquisition of a held key fails fast", func(t *testing.T) {
		l, _ := newRedisLocker(t, time.Minute)

		release, err := l.TryLock(ctx, key)
		if err != nil {
			t.Fatalf("TryLock() returned unexpected error: %v", err)
		}
		defer release(ctx) //nolint:errcheck // cleanup

		_, err = l.TryLock(ctx, key)
		if !errors.Is(err, apperrors.ErrConcurrentRecompute) {
			t.Errorf("Expected ErrConcurrentRecompute, got %v", err)
		}
	})

	t.Run("release frees the key and is safe to repeat", func(t *testing.T) {
		l, mr := newRedisLocker(t, time.Minute)

		release, err := l.TryLock(ctx, key)
		if err != nil {
			t.Fatalf("TryLock() returned unexpected error: %v", err)
		}
		if err := release(ctx); err != nil {
			t.Fatalf("release() returned unexpected error: %v", err)
		}
		if err := release(ctx); err != nil {
			t.Errorf("Expected second release to be a no-op, got %v", err)
		}
		if mr.Exists(key) {
			t.Error("Expected key to be deleted from redis")
		}

		again, err := l.TryLock(ctx, key)
		if err != nil {
			t.Fatalf("Expected key to be free after release, got %v", err)
		}
		_ = again(ctx)
	})

	t.Run("held lock outlives its ttl while the holder runs", func(t *testing.T) {
		ttl := 400 * time.Millisecond
		l, mr := newRedisLocker(t, ttl)

		release, err := l.TryLock(ctx, key)
		if err != nil {
			t.Fatalf("TryLock() returned unexpected error: %v", err)
		}
		defer release(ctx) //nolint:errcheck // cleanup

		mr.FastForward(300 * time.Millisecond)

		// Wait for the holder to refresh the remaining 100ms back to a full ttl.
		deadline := time.Now().Add(2 * time.Second)
		for mr.TTL(key) <= 300*time.Millisecond {
			if time.Now().After(deadline) {
				t.Fatalf("Expected lock to be refreshed, ttl is %s", mr.TTL(key))
			}
			time.Sleep(10 * time.Millisecond)
		}

		mr.FastForward(300 * time.Millisecond)

		_, err = l.TryLock(ctx, key)
		if !errors.Is(err, apperrors.ErrConcurrentRecompute) {
			t.Errorf("Expected lock to still be held past its ttl, got %v", err)
		}
	})

	t.Run("release of an expired lock is not an error", func(t *testing.T) {
		l, mr := newRedisLocker(t, time.Minute)

		release, err := l.TryLock(ctx, key)
		if err != nil {
			t.Fatalf("TryLock() returned unexpected error: %v", err)
		}
		mr.Del(key)

		if err := release(ctx); err != nil {
			t.Errorf("Expected nil for a lock that is no longer held, got %v", err)
		}
	})

	t.Run("unreachable redis is an error, not a conflict", func(t *testing.T) {
		l, mr := newRedisLocker(t, time.Minute)
		mr.Close()

		_, err := l.TryLock(ctx, key)
		if err == nil {
			t.Fatal("Expected error when redis is down")
		}
		if errors.Is(err, apperrors.ErrConcurrentRecompute) {
			t.Errorf("Expected a connection error, got %v", err)
		}
	})
}

func TestDialRedis(t *testing.T) {
	ctx := context.Background()

	t.Run("connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)

		rdb, err := lock.DialRedis(ctx, mr.Addr(), "")
		if err != nil {
			t.Fatalf("DialRedis() returned unexpected error: %v", err)
		}
		_ = rdb.Close()
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		mr := miniredis.RunT(t)
		mr.RequireAuth("s3cret")

		if _, err := lock.DialRedis(ctx, mr.Addr(), "wrong"); err == nil {
			t.Error("Expected error for a wrong password")
		}
	})
}
