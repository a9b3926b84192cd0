package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/mvaldez-dev/storefront-checkout/pkg/errors"
	pkgredis "github.com/mvaldez-dev/storefront-checkout/pkg/redis"
)

// AttemptLocker enforces single-flight per session: at most one checkout
// attempt may be in flight for a logical session at a time.
type AttemptLocker interface {
	// Acquire returns false when another attempt already holds the lock.
	Acquire(ctx context.Context, sessionID string) (bool, error)
	Release(ctx context.Context, sessionID string) error
}

// RedisLocker coordinates single-flight across service instances via
// SetNX with a TTL safety bound.
type RedisLocker struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisLocker builds a redis-backed attempt locker.
func NewRedisLocker(client *pkgredis.Client, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	return &RedisLocker{client: client, ttl: ttl}, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, sessionID string) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.client.AttemptLockKey(sessionID), "1", l.ttl)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire attempt lock")
	}
	return acquired, nil
}

func (l *RedisLocker) Release(ctx context.Context, sessionID string) error {
	if err := l.client.Del(ctx, l.client.AttemptLockKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release attempt lock")
	}
	return nil
}

// MemoryLocker is an in-process AttemptLocker for tests and
// single-instance deployments.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryLocker builds an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: map[string]struct{}{}}
}

func (l *MemoryLocker) Acquire(ctx context.Context, sessionID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[sessionID]; ok {
		return false, nil
	}
	l.held[sessionID] = struct{}{}
	return true, nil
}

func (l *MemoryLocker) Release(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, sessionID)
	return nil
}
