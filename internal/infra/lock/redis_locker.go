package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Format: winloss:lock:{userID}
const redisLockPrefix = "winloss:lock"

const defaultLockTTL = 30 * time.Second

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker holds per-user locks in Redis so several server instances settle a
// user's trades one at a time. The lease is renewed every ttl/3 while held and
// expires after ttl if its holder dies.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	renew  time.Duration
	retry  time.Duration
	logger zerolog.Logger

	extend  func(ctx context.Context, key, token string) (bool, error)
	release func(ctx context.Context, key, token string) error
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	renew := ttl / 3
	if renew <= 0 {
		renew = ttl
	}

	l := &RedisLocker{
		client: client,
		ttl:    ttl,
		renew:  renew,
		retry:  25 * time.Millisecond,
		logger: logger,
	}
	l.extend = l.extendLease
	l.release = l.releaseLease
	return l, nil
}

func (l *RedisLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := fmt.Sprintf("%s:%s", redisLockPrefix, userID)
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return l.hold(key, token), nil
}

// hold keeps the lease alive until the returned unlock runs. Calling unlock more
// than once is a no-op.
func (l *RedisLocker) hold(key, token string) func() {
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.renew)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
			}

			ctx, cancel := context.WithTimeout(context.Background(), l.renew)
			ok, err := l.extend(ctx, key, token)
			cancel()
			if err != nil {
				l.logger.Warn().Err(err).Str("key", key).Msg("extend lock")
				continue
			}
			if !ok {
				l.logger.Error().Str("key", key).Msg("lock lease lost")
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := l.release(ctx, key, token); err != nil {
				l.logger.Warn().Err(err).Str("key", key).Msg("release lock")
			}
		})
	}
}

func (l *RedisLocker) extendLease(ctx context.Context, key, token string) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (l *RedisLocker) releaseLease(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
