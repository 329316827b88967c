// Package lock provides a Redis-backed mutual exclusion lock for jobs that
// must run on a single replica at a time.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/leadsyncpro/billing/internal/application/billing/usecases"
	"github.com/leadsyncpro/billing/internal/shared/logger"
)

const keyPrefix = "lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another replica is left alone.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

type RedisLocker struct {
	client   *redis.Client
	newToken func() string
	logger   logger.Interface
}

var _ usecases.Locker = (*RedisLocker)(nil)

func NewRedisLocker(client *redis.Client, logger logger.Interface) *RedisLocker {
	return &RedisLocker{
		client:   client,
		newToken: uuid.NewString,
		logger:   logger,
	}
}

// TryLock acquires key for ttl without blocking. When acquired is false the
// returned unlock is nil.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	fullKey := keyPrefix + key
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func(ctx context.Context) error {
		released, err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		if released == 0 {
			l.logger.Warnw("lock expired before release", "key", key, "ttl", ttl)
		}
		return nil
	}
	return unlock, true, nil
}
