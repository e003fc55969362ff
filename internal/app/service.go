// Package service composes the leaderboard engine behind the operations
// exposed by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/weekboard/internal/adapters/cache"
	"github.com/okian/weekboard/internal/adapters/mq/queue"
	"github.com/okian/weekboard/internal/adapters/mq/worker"
	"github.com/okian/weekboard/internal/domain/artifact"
	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/internal/domain/pager"
	"github.com/okian/weekboard/internal/domain/ranking"
	"github.com/okian/weekboard/internal/domain/region"
	"github.com/okian/weekboard/internal/domain/week"
	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
)

// Cache operations; each is the first segment of its cache keys.
const (
	opWeekly = "weekly"
	opItems  = "items"
	opWeeks  = "weeks"
)

// CollectionStore resolves collections by slug.
type CollectionStore interface {
	FindBySlug(ctx context.Context, slug string) (model.Collection, error)
}

// SnapshotStore returns every item history of a collection in one call.
type SnapshotStore interface {
	ListPositions(ctx context.Context, collectionID string) ([]model.ItemPositionHistory, error)
}

// Service implements the leaderboard operations.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	collections CollectionStore
	snapshots   SnapshotStore
	catalog     pager.CatalogService
	prices      pager.PriceService
	cache       cache.Cache
	registry    artifact.Registry
	renderer    artifact.Renderer
	images      artifact.ImageStore

	// Built in New
	assembler *pager.Assembler
	artifacts *artifact.Service
	aside     *cache.Aside
	writes    *queue.InMemoryQueue
	pool      *worker.Pool

	// Configuration
	schema          string
	pageTTL         time.Duration
	aggregateTTL    time.Duration
	defaultLimit    int
	maxLimit        int
	topN            int
	upstreamTimeout time.Duration
	queueSize       int
	workerCount     int

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service. Collections, snapshots, catalog and prices are required;
// images are only available when artifact collaborators are set.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		schema:          "v1",
		pageTTL:         time.Hour,
		aggregateTTL:    24 * time.Hour,
		defaultLimit:    20,
		maxLimit:        50,
		topN:            10,
		upstreamTimeout: 2 * time.Second,
		queueSize:       1024,
		workerCount:     4,
		logger:          logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.collections == nil:
		return nil, fmt.Errorf("%w: collection store", ErrMissingDependency)
	case s.snapshots == nil:
		return nil, fmt.Errorf("%w: snapshot store", ErrMissingDependency)
	case s.catalog == nil:
		return nil, fmt.Errorf("%w: catalog", ErrMissingDependency)
	case s.prices == nil:
		return nil, fmt.Errorf("%w: prices", ErrMissingDependency)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory()
	}

	s.assembler = pager.New(s.catalog, s.prices,
		pager.WithDefaultLimit(s.defaultLimit),
		pager.WithMaxLimit(s.maxLimit),
		pager.WithUpstreamTimeout(s.upstreamTimeout),
		pager.WithLogger(s.logger.Named("pager")),
	)
	if s.registry != nil && s.renderer != nil && s.images != nil {
		s.artifacts = artifact.New(s.registry, s.renderer, s.images,
			artifact.WithLogger(s.logger.Named("artifact")))
	}

	s.writes = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.aside = cache.NewAside(s.cache, s.writes, s.logger.Named("cache"))
	s.pool = worker.NewPool(s.workerCount, s.writes, s.cache,
		worker.WithLogger(s.logger.Named("cache-writer")))

	return s, nil
}

// Start starts the cache write workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.pool.Start(ctx)
	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("writers", s.workerCount),
		logger.Int("writeQueueSize", s.queueSize),
	)
	return nil
}

// Stop drains pending cache writes and stops the workers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping leaderboard service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		return fmt.Errorf("stop cache writers: %w", err)
	}
	s.logger.Info(ctx, "leaderboard service stopped")
	return nil
}

// WeeklyLeaderboard returns one page of a collection's ranking for an ISO week
// with prices for the region of country.
func (s *Service) WeeklyLeaderboard(ctx context.Context, slug, weekID, country string, page, limit int) (model.Page, error) {
	id, err := week.Parse(weekID)
	if err != nil {
		return model.Page{}, err
	}
	reg, err := region.Resolve(country)
	if err != nil {
		return model.Page{}, err
	}
	page, limit = s.assembler.Normalize(page, limit)

	key := cache.Key(opWeekly, s.schema, slug, id.String(), reg.Code, strconv.Itoa(page), strconv.Itoa(limit))
	p, _, err := cache.Fetch(ctx, s.aside, opWeekly, key, s.pageTTL, func(ctx context.Context) (model.Page, error) {
		coll, histories, err := s.load(ctx, slug)
		if err != nil {
			return model.Page{}, err
		}
		w := id.Window()
		return s.assembler.Assemble(ctx, pager.Request{
			Page:      page,
			Limit:     limit,
			Region:    reg.Code,
			Title:     coll.Name,
			UpdatedAt: coll.UpdatedAt,
			Window:    &w,
		}, ranking.Rank(w, histories))
	})
	return p, err
}

// LeaderboardArtifact returns the image of the top of a weekly leaderboard.
// Identical content reuses the previously uploaded image unless force is set;
// raw returns the rendered bytes without publishing them.
func (s *Service) LeaderboardArtifact(ctx context.Context, slug, weekID, country string, force, raw bool) (artifact.Result, error) {
	if s.artifacts == nil {
		return artifact.Result{}, fmt.Errorf("%w: image rendering is not configured", ErrUpstreamUnavailable)
	}

	page, err := s.WeeklyLeaderboard(ctx, slug, weekID, country, 1, s.topN)
	if err != nil {
		return artifact.Result{}, err
	}
	// Inputs were validated above.
	id, _ := week.Parse(weekID)
	reg, _ := region.Resolve(country)

	res, err := s.artifacts.Resolve(ctx, artifact.Request{
		Week:     id.String(),
		Region:   reg.Code,
		Currency: reg.Currency,
		Title:    page.Title,
		Elements: page.Elements,
		Force:    force,
		Raw:      raw,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return artifact.Result{}, err
		}
		metrics.RecordErrorByComponent("artifact", "resolve")
		return artifact.Result{}, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return res, nil
}

// CollectionItems lists a collection ranked by each item's latest snapshot,
// optionally reordered by discount.
func (s *Service) CollectionItems(ctx context.Context, slug, country string, page, limit int, sortKey, order string) (model.Page, error) {
	reg, err := region.Resolve(country)
	if err != nil {
		return model.Page{}, err
	}
	sortKey, order, err = pager.ParseSort(sortKey, order)
	if err != nil {
		return model.Page{}, err
	}
	page, limit = s.assembler.Normalize(page, limit)

	key := cache.Key(opItems, s.schema, slug, reg.Code, strconv.Itoa(page), strconv.Itoa(limit), sortKey, order)
	p, _, err := cache.Fetch(ctx, s.aside, opItems, key, s.pageTTL, func(ctx context.Context) (model.Page, error) {
		coll, histories, err := s.load(ctx, slug)
		if err != nil {
			return model.Page{}, err
		}
		return s.assembler.AssembleSorted(ctx, pager.Request{
			Page:      page,
			Limit:     limit,
			Region:    reg.Code,
			Title:     coll.Name,
			UpdatedAt: coll.UpdatedAt,
		}, ranking.Latest(histories), sortKey, order)
	})
	return p, err
}

// Weeks lists the ISO weeks with at least one ranked snapshot, newest first.
func (s *Service) Weeks(ctx context.Context, slug string) ([]string, error) {
	key := cache.Key(opWeeks, s.schema, slug)
	out, _, err := cache.Fetch(ctx, s.aside, opWeeks, key, s.aggregateTTL, func(ctx context.Context) ([]string, error) {
		_, histories, err := s.load(ctx, slug)
		if err != nil {
			return nil, err
		}
		ids := ranking.Weeks(histories)
		weeks := make([]string, 0, len(ids))
		for _, id := range ids {
			weeks = append(weeks, id.String())
		}
		return weeks, nil
	})
	return out, err
}

// load fetches a collection and every item history in it.
func (s *Service) load(ctx context.Context, slug string) (model.Collection, []model.ItemPositionHistory, error) {
	coll, err := s.collections.FindBySlug(ctx, slug)
	if err != nil {
		return model.Collection{}, nil, s.upstream(ctx, "collections", err)
	}
	histories, err := s.snapshots.ListPositions(ctx, coll.ID)
	if err != nil {
		return model.Collection{}, nil, s.upstream(ctx, "positions", err)
	}
	return coll, histories, nil
}

// upstream classifies a store error. Not-found and cancellation pass through.
func (s *Service) upstream(ctx context.Context, store string, err error) error {
	if errors.Is(err, ErrCollectionNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	metrics.RecordErrorByComponent(store, "unavailable")
	s.logger.Error(ctx, "store unavailable", logger.String("store", store), logger.Error(err))
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	queueLen := s.writes.Len(ctx)
	stats := map[string]interface{}{
		"started":              s.started,
		"writeWorkers":         s.workerCount,
		"writeQueueCapacity":   s.queueSize,
		"writeQueueLength":     queueLen,
		"cacheWritesProcessed": s.pool.Processed(),
		"artifactsEnabled":     s.artifacts != nil,
		"schemaVersion":        s.schema,
	}
	if b, ok := s.cache.(interface{ State() (string, string) }); ok {
		read, write := b.State()
		stats["cacheBreaker"] = map[string]string{"read": read, "write": write}
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateWorkerCount(s.workerCount)

	return stats
}
