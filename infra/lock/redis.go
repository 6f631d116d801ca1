// Package lock serializes customer creation across processes with a Redis
// SET NX lock.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/mstgnz/paybridge/infra/logger"
	"github.com/mstgnz/paybridge/provider"
)

const (
	defaultTTL       = 30 * time.Second
	defaultRetryWait = 50 * time.Millisecond
	keyPrefix        = "paybridge:lock:"
)

// releaseScript deletes the key only while it still holds our token
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

type client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisLocker implements provider.Locker on top of a Redis SET NX key
type RedisLocker struct {
	rc        client
	ttl       time.Duration
	retryWait time.Duration
}

var _ provider.Locker = (*RedisLocker)(nil)

// Config configures a RedisLocker
type Config struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// New connects to Redis and checks the connection
func New(ctx context.Context, cfg Config) (*RedisLocker, *redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		return nil, nil, err
	}
	return NewWithClient(rc, cfg.TTL), rc, nil
}

// NewWithClient wraps an existing client; ttl bounds how long a crashed
// holder can keep the lock
func NewWithClient(rc client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLocker{rc: rc, ttl: ttl, retryWait: defaultRetryWait}
}

// Lock polls SET NX until the key is acquired or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.rc.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, provider.Wrap(provider.KindTransient, "lock", ctx.Err())
			}
			return nil, provider.Wrap(provider.KindTransient, "lock", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, provider.Wrap(provider.KindTransient, "lock", ctx.Err())
		case <-time.After(l.retryWait):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be done
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.rc.Eval(ctx, releaseScript, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				logger.Warn("Failed to release lock", logger.LogContext{
					Fields: map[string]any{"key": key, "error": err.Error()},
				})
			}
		})
	}, nil
}
