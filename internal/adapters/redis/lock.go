package redisad

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"inmobiliaria/internal/adapters/observability"
)

// ErrLockTimeout is returned when the lock is still held by someone else
// once the wait budget is spent.
var ErrLockTimeout = errors.New("lock: timed out waiting for lock")

// Only the holder's token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a single-instance Redis mutex (SET NX PX + token-checked release).
// The TTL bounds how long a crashed holder can block others.
type Locker struct {
	c     *redis.Client
	ttl   time.Duration
	wait  time.Duration
	retry time.Duration
}

func NewLocker(c *redis.Client, ttl, wait time.Duration) *Locker {
	return &Locker{c: c, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

// Lock blocks until the key is acquired, ctx is done, or the wait budget
// runs out.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	start := time.Now()
	deadline := start.Add(l.wait)

	for {
		ok, err := l.c.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", key, err)
		}
		if ok {
			observability.ObserveLockWait(time.Since(start))
			return l.releaser(key, token), nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Locker) releaser(key, token string) func() {
	return func() {
		// release must run even when the request context is already cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.c, []string{key}, token).Int()
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("lock release failed")
			return
		}
		if n == 0 {
			log.Warn().Str("key", key).Msg("lock expired before release")
		}
	}
}
