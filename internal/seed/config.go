// Package seed generates synthetic collections and writes them to the
// document store.
package seed

import (
	"context"
	"time"

	"github.com/okian/weekboard/internal/domain/model"
)

// Config holds configuration for one seeding run.
type Config struct {
	Slug     string    // Collection slug
	Name     string    // Collection display name
	Items    int       // Number of catalog items
	Weeks    int       // Number of weeks of daily snapshots, ending at Now
	Seed     uint64    // Random seed; equal seeds generate equal data
	Now      time.Time // End of the generated history
	GapRate  float64   // Probability that an item has no snapshot on a day
	ZeroRate float64   // Probability that a snapshot is unranked (position 0)
	Workers  int       // Concurrent write batches
}

// Dataset is a generated collection with everything needed to serve it.
type Dataset struct {
	Collection model.Collection
	Items      []model.CatalogItem
	Histories  []model.ItemPositionHistory
	Offers     map[string][]model.Offer // by region code
}

// Writer persists a dataset.
type Writer interface {
	UpsertCollection(ctx context.Context, c model.Collection) error
	ReplacePositions(ctx context.Context, collectionID string, histories []model.ItemPositionHistory) error
	UpsertCatalog(ctx context.Context, items []model.CatalogItem) error
	UpsertPrices(ctx context.Context, region string, offers []model.Offer) error
}

// Stats summarises what a run wrote.
type Stats struct {
	Items     int
	Snapshots int
	Offers    int
	Duration  time.Duration
}
