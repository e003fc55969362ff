package cache

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/weekboard/internal/adapters/mq/queue"
	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
)

// Enqueuer accepts deferred cache writes.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) bool
}

// Aside implements cache-aside over a Cache: reads go straight to the cache,
// writes are handed to a write queue and never block the caller.
type Aside struct {
	cache  Cache
	writes Enqueuer
	logger logger.Logger
}

// NewAside creates an Aside. With a nil Enqueuer writes happen inline.
func NewAside(c Cache, writes Enqueuer, log logger.Logger) *Aside {
	if log == nil {
		log = logger.Nop()
	}
	return &Aside{cache: c, writes: writes, logger: log}
}

// Lookup is the hit branch: it returns the decoded entry stored under key.
// Read and decode failures are reported as a miss.
func Lookup[T any](ctx context.Context, a *Aside, op, key string) (T, bool) {
	var zero T
	raw, found, err := a.cache.Get(ctx, key)
	if err != nil {
		metrics.RecordCacheError(op, "read")
		a.logger.Warn(ctx, "cache read failed, recomputing", logger.String("key", key), logger.Error(err))
		return zero, false
	}
	if !found {
		metrics.RecordCacheMiss(op)
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		metrics.RecordCacheError(op, "decode")
		a.logger.Warn(ctx, "cache entry undecodable, recomputing",
			logger.String("key", key), logger.Error(fmt.Errorf("%w: %w", ErrDecode, err)))
		return zero, false
	}
	metrics.RecordCacheHit(op)
	return v, true
}

// Populate is the miss branch: it serializes v and schedules the write.
// Failures are logged and counted, never returned.
func (a *Aside) Populate(ctx context.Context, op, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		metrics.RecordCacheError(op, "encode")
		a.logger.Error(ctx, "cache entry not encodable", logger.String("key", key), logger.Error(err))
		return
	}

	if a.writes == nil {
		if err := a.cache.Set(ctx, key, raw, ttl); err != nil {
			metrics.RecordCacheError(op, "write")
			a.logger.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
		}
		return
	}

	job := queue.Job{Op: op, Key: key, Payload: raw, TTL: ttl}
	if !a.writes.Enqueue(context.WithoutCancel(ctx), job) {
		metrics.RecordCacheWriteDropped()
		a.logger.Warn(ctx, "cache write dropped", logger.String("key", key))
	}
}

// Fetch runs the full cache-aside flow: Lookup, and on a miss compute then
// Populate. cached reports which branch served the value. Compute errors are
// returned and never cached.
func Fetch[T any](ctx context.Context, a *Aside, op, key string, ttl time.Duration,
	compute func(context.Context) (T, error),
) (v T, cached bool, err error) {
	if hit, ok := Lookup[T](ctx, a, op, key); ok {
		return hit, true, nil
	}
	v, err = compute(ctx)
	if err != nil {
		return v, false, err
	}
	a.Populate(ctx, op, key, v, ttl)
	return v, false, nil
}
