package distributed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

// SessionLock is a Redis-backed lock on one pug session, held by a
// single lifecycle operation across all server processes.
type SessionLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

type SessionLockManager struct {
	client *redis.Client
}

func NewSessionLockManager(client *redis.Client) *SessionLockManager {
	return &SessionLockManager{
		client: client,
	}
}

func lockKey(pugID string) string {
	return fmt.Sprintf("pug:lock:%s", pugID)
}

// Acquire takes the lock for pugID atomically via SET NX, failing with
// ErrLockNotAcquired when another operation holds it.
func (m *SessionLockManager) Acquire(ctx context.Context, pugID string, ttl time.Duration) (*SessionLock, error) {
	key := lockKey(pugID)
	value := uuid.NewString()

	success, err := m.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return nil, err
	}

	if !success {
		return nil, ErrLockNotAcquired
	}

	return &SessionLock{
		client: m.client,
		key:    key,
		value:  value,
		ttl:    ttl,
	}, nil
}

// AcquireWithRetry retries Acquire until the lock is taken, the retry
// budget runs out, or ctx is done.
func (m *SessionLockManager) AcquireWithRetry(
	ctx context.Context,
	pugID string,
	ttl time.Duration,
	maxRetries int,
	retryInterval time.Duration,
) (*SessionLock, error) {
	for i := 0; i < maxRetries; i++ {
		lock, err := m.Acquire(ctx, pugID, ttl)
		if err == nil {
			return lock, nil
		}

		if err != ErrLockNotAcquired {
			return nil, err
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}

	return nil, ErrLockNotAcquired
}

// Release deletes the lock, but only if this holder still owns it.
func (l *SessionLock) Release(ctx context.Context) error {
	script := redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)

	result, err := script.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		return err
	}

	if result == 0 {
		return ErrLockNotHeld
	}

	return nil
}

// IsHeld reports whether this holder still owns the lock.
func (l *SessionLock) IsHeld(ctx context.Context) (bool, error) {
	value, err := l.client.Get(ctx, l.key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return value == l.value, nil
}
