// Package worker drains the cache write queue into the cache backend.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/weekboard/internal/adapters/mq/queue"
	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount  = 4
	defaultWriteTimeout = 2 * time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Writer stores one cache entry.
type Writer interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until the queue is drained or it is told to stop.
type Worker interface {
	// Run processes jobs until the queue is closed and drained or Shutdown
	// is called. Cancelling ctx does not stop it.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker writes queued jobs with a Writer.
type InMemoryWorker struct {
	queue        Queue
	writer       Writer
	name         string
	writeTimeout time.Duration
	processed    *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, writer Writer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:        q,
		writer:       writer,
		name:         "worker",
		writeTimeout: defaultWriteTimeout,
		processed:    &atomic.Int64{},
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop. Writes queued before shutdown are still
// processed when ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ctx = context.WithoutCancel(ctx)
	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if r, ok := w.queue.(interface{ Received() }); ok {
				r.Received()
			}
			if err := w.process(ctx, j); err != nil {
				w.logger.Warn(ctx, "cache write failed", logger.String("key", j.Key), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many jobs this worker has written successfully.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	wctx, cancel := context.WithTimeout(ctx, w.writeTimeout)
	defer cancel()

	if err := w.writer.Set(wctx, j.Key, j.Payload, j.TTL); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordCacheError(j.Op, "write")
		metrics.RecordErrorByComponent("worker", "cache_write")
		return fmt.Errorf("write %s: %w", j.Key, err)
	}
	w.processed.Add(1)
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, writer Writer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, writer,
			append(append([]Option(nil), opts...), WithName("cache-writer-"+strconv.Itoa(i)))...)
	}
	pool.logger = pool.workers[0].logger

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool. They run until Shutdown, regardless
// of ctx cancellation.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of jobs written by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Shutdown closes the queue and waits for workers to drain it. Workers still
// running when ctx or the pool timeout expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			_ = w.Shutdown(context.Background())
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
