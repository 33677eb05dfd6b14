package salesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Additional-Code/sistemact/internal/integration"
)

const lockPrefix = "salesync:"

// RedisCoordinator shares the in-flight guard between processes through a redis lock.
// The TTL bounds how long a crashed process can keep a platform Running.
type RedisCoordinator struct {
	client *goredis.Client
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisCoordinator builds a coordinator on top of client.
func NewRedisCoordinator(client *goredis.Client, ttl time.Duration) *RedisCoordinator {
	return &RedisCoordinator{client: client, locker: redislock.New(client), ttl: ttl}
}

func lockKey(platform integration.Platform) string {
	return lockPrefix + string(platform)
}

func (r *RedisCoordinator) TryAcquire(ctx context.Context, platform integration.Platform) (Lease, error) {
	lock, err := r.locker.Obtain(ctx, lockKey(platform), r.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, fmt.Errorf("obtain sync lock: %w", err)
	}
	return redisLease{lock: lock}, nil
}

func (r *RedisCoordinator) State(ctx context.Context, platform integration.Platform) (State, error) {
	n, err := r.client.Exists(ctx, lockKey(platform)).Result()
	if err != nil {
		return Idle, fmt.Errorf("read sync lock: %w", err)
	}
	if n > 0 {
		return Running, nil
	}
	return Idle, nil
}

type redisLease struct {
	lock *redislock.Lock
}

func (l redisLease) Release(ctx context.Context) error {
	err := l.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		// expired by TTL; nothing left to free
		return nil
	}
	return err
}
