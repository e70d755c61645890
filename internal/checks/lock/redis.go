package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	dErrors "bgv/pkg/domain-errors"
)

const (
	defaultTTL     = 30 * time.Second
	defaultBackoff = 50 * time.Millisecond
	keyPrefix      = "bgv:lock:"
)

// RedisLocker serializes writers across service instances.
type RedisLocker struct {
	client  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
	logger  *slog.Logger
}

type RedisOption func(*RedisLocker)

// WithTTL bounds how long a crashed holder can keep a key locked.
func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.ttl = ttl
	}
}

func WithBackoff(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		l.backoff = d
	}
}

func WithLogger(logger *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		l.logger = logger
	}
}

func NewRedisLocker(rdb redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client:  redislock.New(rdb),
		ttl:     defaultTTL,
		backoff: defaultBackoff,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock retries until the key is obtained or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	held, err := l.client.Obtain(ctx, keyPrefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.backoff),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, dErrors.New(dErrors.CodeConflict, "check is locked by another writer")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, dErrors.Wrap(ctxErr, dErrors.CodeTimeout, "timed out waiting for check lock")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "lock backend unavailable")
	}
	return func() {
		// Release with a fresh context so a cancelled request still frees the key.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := held.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release check lock", "key", key, "error", err)
		}
	}, nil
}
