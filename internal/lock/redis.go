package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
)

// RedisLocker is a Locker shared by every instance pointing at the same Redis.
// A held lock is refreshed every ttl/2 until it is released, so it only
// expires when its holder stops running.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewRedisLocker wraps an existing Redis client.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration, log logrus.FieldLogger) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		log:    log,
	}
}

// DialRedis connects to Redis and verifies the connection with a ping.
func DialRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// TryLock obtains key once without retrying.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (Release, error) {
	lk, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperrors.ErrConcurrentRecompute
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, lk, stop, done)

	var (
		once       sync.Once
		releaseErr error
	)
	return func(ctx context.Context) error {
		once.Do(func() {
			close(stop)
			<-done
			err := lk.Release(ctx)
			if err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				releaseErr = fmt.Errorf("failed to release lock %s: %w", key, err)
			}
		})
		return releaseErr
	}, nil
}

func (l *RedisLocker) keepAlive(key string, lk *redislock.Lock, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/2)
			err := lk.Refresh(ctx, l.ttl, nil)
			cancel()
			if err != nil {
				l.log.WithError(err).WithField("key", key).Error("lost lock before release")
				return
			}
		}
	}
}
