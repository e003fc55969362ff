package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
)

type getResult struct {
	value []byte
	found bool
}

// BreakerCache guards a Cache with a circuit breaker so a failing backend is
// skipped quickly instead of adding latency to every request.
type BreakerCache struct {
	next   Cache
	name   string
	reads  *gobreaker.CircuitBreaker[getResult]
	writes *gobreaker.CircuitBreaker[struct{}]
}

// BreakerSettings tunes the breaker.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
}

// NewBreaker wraps next. Reads and writes trip independently.
func NewBreaker(next Cache, name string, st BreakerSettings, log logger.Logger) *BreakerCache {
	if st.ConsecutiveFailures == 0 {
		st.ConsecutiveFailures = 5
	}
	if st.OpenTimeout <= 0 {
		st.OpenTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	settings := func(suffix string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name + "-" + suffix,
			MaxRequests: 1,
			Timeout:     st.OpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= st.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				metrics.UpdateBreakerState(name, to.String())
				log.Warn(context.Background(), "cache circuit state change",
					logger.String("breaker", name), logger.String("from", from.String()), logger.String("to", to.String()))
			},
		}
	}

	metrics.UpdateBreakerState(name+"-read", gobreaker.StateClosed.String())
	metrics.UpdateBreakerState(name+"-write", gobreaker.StateClosed.String())

	return &BreakerCache{
		next:   next,
		name:   name,
		reads:  gobreaker.NewCircuitBreaker[getResult](settings("read")),
		writes: gobreaker.NewCircuitBreaker[struct{}](settings("write")),
	}
}

// Get implements Cache.
func (b *BreakerCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	res, err := b.reads.Execute(func() (getResult, error) {
		v, ok, err := b.next.Get(ctx, key)
		return getResult{value: v, found: ok}, err
	})
	if err != nil {
		return nil, false, wrapOpen(err)
	}
	return res.value, res.found, nil
}

// Set implements Cache.
func (b *BreakerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := b.writes.Execute(func() (struct{}, error) {
		return struct{}{}, b.next.Set(ctx, key, value, ttl)
	})
	return wrapOpen(err)
}

// State returns the read and write breaker states.
func (b *BreakerCache) State() (read, write string) {
	return b.reads.State().String(), b.writes.State().String()
}

func wrapOpen(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
