// Package ratelimit enforces per-key request budgets.
//
// Limiter is the capability the HTTP edge depends on. ULULimiter implements
// it with github.com/ulule/limiter/v3 over an in-memory or Redis store.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Result describes the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RetryAfter returns the wait until the window resets, rounded up to whole
// seconds and never below one second.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	secs := (d + time.Second - 1) / time.Second
	return secs * time.Second
}

// Limiter counts a request against key and reports whether it fits in
// limit requests per window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// ULULimiter - Limiter поверх ulule/limiter.
//
// ulule привязывает rate к экземпляру, поэтому на каждую уникальную пару
// (max, window) создаётся свой limiter над общим store.
type ULULimiter struct {
	store limiter.Store

	mu       sync.Mutex
	limiters map[string]*limiter.Limiter
}

// NewMemory creates a limiter with process-local counters.
func NewMemory() *ULULimiter {
	return newULU(memory.NewStore())
}

// NewRedis creates a limiter that shares counters across instances through Redis.
func NewRedis(client *redis.Client, prefix string) (*ULULimiter, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   prefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return newULU(store), nil
}

func newULU(store limiter.Store) *ULULimiter {
	return &ULULimiter{store: store, limiters: make(map[string]*limiter.Limiter)}
}

// Allow implements Limiter.
func (l *ULULimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	if limit < 1 || window <= 0 {
		return Result{}, fmt.Errorf("ratelimit: invalid rate %d per %s", limit, window)
	}

	id := fmt.Sprintf("%d/%s", limit, window)
	lctx, err := l.get(id, limit, window).Get(ctx, id+":"+key)
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: %w", err)
	}

	return Result{
		Allowed:   !lctx.Reached,
		Limit:     lctx.Limit,
		Remaining: lctx.Remaining,
		ResetAt:   time.Unix(lctx.Reset, 0).UTC(),
	}, nil
}

func (l *ULULimiter) get(id string, limit int, window time.Duration) *limiter.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters[id]; ok {
		return lim
	}
	lim := limiter.New(l.store, limiter.Rate{Period: window, Limit: int64(limit)})
	l.limiters[id] = lim
	return lim
}
