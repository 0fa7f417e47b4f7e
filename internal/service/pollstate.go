package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// trackerTTL bounds how long a transaction/status observation lives. Polling
// stops within minutes; a day covers any manual cleanup window.
const trackerTTL = 24 * time.Hour

// RedisTracker records first-seen timestamps in Redis so elapsed-in-state
// survives across process instances behind a load balancer.
type RedisTracker struct {
	client *redis.Client
}

func NewRedisTracker(addr string) *RedisTracker {
	return &RedisTracker{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (t *RedisTracker) FirstSeen(ctx context.Context, transactionID, status string, now time.Time) (time.Duration, error) {
	key := "pollstate:" + transactionID + ":" + status
	// SetNX records the first observation; later calls read it back.
	set, err := t.client.SetNX(ctx, key, strconv.FormatInt(now.UnixMilli(), 10), trackerTTL).Result()
	if err != nil {
		return 0, err
	}
	if set {
		return 0, nil
	}
	raw, err := t.client.Get(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return now.Sub(time.UnixMilli(ms)), nil
}

func (t *RedisTracker) Close() error {
	return t.client.Close()
}

// MemoryTracker is the single-process fallback (and the test double) for
// deployments without Redis.
type MemoryTracker struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{seen: make(map[string]time.Time)}
}

func (t *MemoryTracker) FirstSeen(_ context.Context, transactionID, status string, now time.Time) (time.Duration, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := transactionID + ":" + status
	first, ok := t.seen[key]
	if !ok {
		t.seen[key] = now
		return 0, nil
	}
	return now.Sub(first), nil
}
