package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// BudgetChecker checks and records daily token usage per key (usually a
// requester id).
type BudgetChecker interface {
	// Check returns true if key has budget remaining today.
	Check(ctx context.Context, key string) (bool, error)
	// Record adds token usage for key.
	Record(ctx context.Context, key string, tokens int) error
	// Usage returns today's usage and the limit for key. A zero limit means
	// unlimited.
	Usage(ctx context.Context, key string) (used int64, limit int64, err error)
}

// InMemoryBudget tracks daily token usage in process memory.
type InMemoryBudget struct {
	mu     sync.RWMutex
	limit  int64
	limits map[string]int64 // key -> per-key override
	day    string           // UTC date the usage map belongs to
	usage  map[string]int64 // key -> tokens used on day
	now    func() time.Time
}

// NewInMemoryBudget creates a tracker with the given default daily limit.
// A limit of zero means unlimited unless overridden per key.
func NewInMemoryBudget(dailyLimit int64) *InMemoryBudget {
	return &InMemoryBudget{
		limit:  dailyLimit,
		limits: make(map[string]int64),
		usage:  make(map[string]int64),
		now:    time.Now,
	}
}

// SetBudget overrides the daily limit for one key.
func (b *InMemoryBudget) SetBudget(key string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limits[key] = tokens
}

func (b *InMemoryBudget) Check(ctx context.Context, key string) (bool, error) {
	used, limit, err := b.Usage(ctx, key)
	if err != nil {
		return false, err
	}
	return limit == 0 || used < limit, nil
}

func (b *InMemoryBudget) Record(_ context.Context, key string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if today := utcDay(b.now()); today != b.day {
		b.day = today
		clear(b.usage)
	}
	b.usage[key] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(_ context.Context, key string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if utcDay(b.now()) != b.day {
		return 0, b.limitFor(key), nil
	}
	return b.usage[key], b.limitFor(key), nil
}

func (b *InMemoryBudget) limitFor(key string) int64 {
	if l, ok := b.limits[key]; ok {
		return l
	}
	return b.limit
}

// RedisBudget tracks daily token usage in Redis so the count is shared by
// every server instance. Counters expire two days after creation.
type RedisBudget struct {
	client redis.Cmdable
	limit  int64
	prefix string
	now    func() time.Time
}

// NewRedisBudget creates a Redis-backed tracker.
func NewRedisBudget(client redis.Cmdable, dailyLimit int64) *RedisBudget {
	return &RedisBudget{
		client: client,
		limit:  dailyLimit,
		prefix: "quiz:budget:",
		now:    time.Now,
	}
}

const budgetKeyTTL = 48 * time.Hour

func (b *RedisBudget) Check(ctx context.Context, key string) (bool, error) {
	used, limit, err := b.Usage(ctx, key)
	if err != nil {
		return false, err
	}
	return limit == 0 || used < limit, nil
}

func (b *RedisBudget) Record(ctx context.Context, key string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}
	k := b.prefix + dailyKey(b.now(), key)
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrBy(ctx, k, int64(tokens))
		pipe.Expire(ctx, k, budgetKeyTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("recording token usage: %w", err)
	}
	return nil
}

func (b *RedisBudget) Usage(ctx context.Context, key string) (int64, int64, error) {
	used, err := b.client.Get(ctx, b.prefix+dailyKey(b.now(), key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, b.limit, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("reading token usage: %w", err)
	}
	return used, b.limit, nil
}

func utcDay(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

func dailyKey(now time.Time, key string) string {
	return utcDay(now) + ":" + key
}
