package voice

import (
	"context"
	"sync"
	"time"

	"voice-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// CallLimiter caps concurrent calls per workspace. Acquire reports whether a
// new call may start; Release frees the slot once the call reaches a terminal
// state.
type CallLimiter interface {
	Acquire(ctx context.Context, workspaceID string) (bool, error)
	Release(ctx context.Context, workspaceID string) error
}

const limiterKeyPrefix = "voice:active:"

// limiterSlotTTL bounds how long a crashed process can hold slots.
const limiterSlotTTL = 2 * time.Hour

// RedisCallLimiter enforces the cap across instances with an atomic counter.
type RedisCallLimiter struct {
	rdb   *redis.Client
	limit int
}

func NewRedisCallLimiter(rdb *redis.Client, limit int) *RedisCallLimiter {
	return &RedisCallLimiter{rdb: rdb, limit: limit}
}

func (l *RedisCallLimiter) Acquire(ctx context.Context, workspaceID string) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, limiterKeyPrefix+workspaceID, l.limit, limiterSlotTTL)
}

func (l *RedisCallLimiter) Release(ctx context.Context, workspaceID string) error {
	return utils.ReleaseConcurrencyCap(ctx, l.rdb, limiterKeyPrefix+workspaceID)
}

// MemoryCallLimiter is a process-local CallLimiter for tests and single
// instance deployments without Redis.
type MemoryCallLimiter struct {
	mu     sync.Mutex
	limit  int
	active map[string]int
}

func NewMemoryCallLimiter(limit int) *MemoryCallLimiter {
	return &MemoryCallLimiter{limit: limit, active: make(map[string]int)}
}

func (l *MemoryCallLimiter) Acquire(ctx context.Context, workspaceID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[workspaceID] >= l.limit {
		return false, nil
	}
	l.active[workspaceID]++
	return true, nil
}

func (l *MemoryCallLimiter) Release(ctx context.Context, workspaceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[workspaceID] > 0 {
		l.active[workspaceID]--
	}
	return nil
}
