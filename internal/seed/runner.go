package seed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/weekboard/pkg/logger"
)

// Run generates the dataset for cfg and writes it through w. The collection
// document is written last so readers never see it without its positions.
func Run(ctx context.Context, cfg Config, w Writer, log logger.Logger) (Stats, error) {
	start := time.Now()
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Items < 1 || cfg.Weeks < 1 {
		return Stats{}, fmt.Errorf("seed: items and weeks must be positive")
	}

	log.Info(ctx, "generating collection",
		logger.String("slug", cfg.Slug),
		logger.Int("items", cfg.Items),
		logger.Int("weeks", cfg.Weeks))
	ds := Generate(cfg)

	stats := Stats{Items: len(ds.Items)}
	for _, h := range ds.Histories {
		stats.Snapshots += len(h.Positions)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		g.SetLimit(cfg.Workers)
	}
	g.Go(func() error {
		if err := w.UpsertCatalog(gctx, ds.Items); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := w.ReplacePositions(gctx, ds.Collection.ID, ds.Histories); err != nil {
			return fmt.Errorf("write positions: %w", err)
		}
		return nil
	})
	for code, offers := range ds.Offers {
		stats.Offers += len(offers)
		g.Go(func() error {
			if err := w.UpsertPrices(gctx, code, offers); err != nil {
				return fmt.Errorf("write prices %s: %w", code, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	if err := w.UpsertCollection(ctx, ds.Collection); err != nil {
		return Stats{}, fmt.Errorf("write collection: %w", err)
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "seeded collection",
		logger.String("slug", cfg.Slug),
		logger.String("collection_id", ds.Collection.ID),
		logger.Int("snapshots", stats.Snapshots),
		logger.Int("offers", stats.Offers),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}
