package voice

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedupe guards against provider webhook retries: a slow response can make
// the vendor re-deliver the same turn, which would append a duplicate
// transcript entry without this check.
type Dedupe interface {
	// FirstSeen returns true when key has not been observed recently.
	FirstSeen(ctx context.Context, key string) (bool, error)
}

// RedisDedupe implements Dedupe with SETNX and a short TTL. Turns for one
// call arrive seconds apart, so a small window is enough to absorb retries
// without unbounded growth.
type RedisDedupe struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDedupe(rdb *redis.Client, ttl time.Duration) *RedisDedupe {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisDedupe{rdb: rdb, ttl: ttl}
}

func (d *RedisDedupe) FirstSeen(ctx context.Context, key string) (bool, error) {
	return d.rdb.SetNX(ctx, "voice:turn:"+key, 1, d.ttl).Result()
}

// MemoryDedupe is an in-process Dedupe for tests.
type MemoryDedupe struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDedupe() *MemoryDedupe {
	return &MemoryDedupe{seen: map[string]struct{}{}}
}

func (d *MemoryDedupe) FirstSeen(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = struct{}{}
	return true, nil
}
