package service

import (
	"time"

	"github.com/okian/weekboard/internal/adapters/cache"
	"github.com/okian/weekboard/internal/domain/artifact"
	"github.com/okian/weekboard/internal/domain/pager"
	"github.com/okian/weekboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCollections sets the collection lookup.
func WithCollections(c CollectionStore) Option {
	return func(s *Service) { s.collections = c }
}

// WithSnapshots sets the position history store.
func WithSnapshots(st SnapshotStore) Option {
	return func(s *Service) { s.snapshots = st }
}

// WithCatalog sets the item metadata lookup.
func WithCatalog(c pager.CatalogService) Option {
	return func(s *Service) { s.catalog = c }
}

// WithPrices sets the regional price lookup.
func WithPrices(p pager.PriceService) Option {
	return func(s *Service) { s.prices = p }
}

// WithCache sets the response cache. Defaults to an in-memory cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithArtifacts sets the collaborators used to render and publish leaderboard images.
func WithArtifacts(registry artifact.Registry, renderer artifact.Renderer, images artifact.ImageStore) Option {
	return func(s *Service) {
		s.registry = registry
		s.renderer = renderer
		s.images = images
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSchemaVersion sets the cache key schema segment.
func WithSchemaVersion(v string) Option {
	return func(s *Service) {
		if v != "" {
			s.schema = v
		}
	}
}

// WithTTLs sets the cache lifetime of data pages and of coarse aggregates.
func WithTTLs(page, aggregate time.Duration) Option {
	return func(s *Service) {
		if page > 0 {
			s.pageTTL = page
		}
		if aggregate > 0 {
			s.aggregateTTL = aggregate
		}
	}
}

// WithPageLimits sets the default and maximum page sizes.
func WithPageLimits(def, max int) Option {
	return func(s *Service) {
		if def > 0 {
			s.defaultLimit = def
		}
		if max > 0 {
			s.maxLimit = max
		}
	}
}

// WithArtifactTopN sets how many rows an image shows.
func WithArtifactTopN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.topN = n
		}
	}
}

// WithUpstreamTimeout bounds each catalog and price lookup.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.upstreamTimeout = d
		}
	}
}

// WithWriteQueue sets the cache write queue capacity and the number of writers draining it.
func WithWriteQueue(size, workers int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
		if workers > 0 {
			s.workerCount = workers
		}
	}
}
