package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// FindBySlug returns the collection with the given slug.
// Returns ErrCollectionNotFound if none exists.
func (m *Mongo) FindBySlug(ctx context.Context, slug string) (model.Collection, error) {
	const op = "repository/mongo/FindBySlug"

	var doc collectionDoc
	err := m.collections.FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return model.Collection{}, fmt.Errorf("%s: %q: %w", op, slug, ErrCollectionNotFound)
		}
		return model.Collection{}, fmt.Errorf("%s: %w", op, err)
	}
	return doc.model(), nil
}

// ListPositions returns the position history of every item in a collection
// in a single round trip. Snapshots missing a date or a position are dropped.
func (m *Mongo) ListPositions(ctx context.Context, collectionID string) ([]model.ItemPositionHistory, error) {
	const op = "repository/mongo/ListPositions"

	start := time.Now()
	out, err := m.listPositions(ctx, collectionID)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordUpstreamLatency("positions", outcome, float64(time.Since(start).Nanoseconds())/1e6)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (m *Mongo) listPositions(ctx context.Context, collectionID string) ([]model.ItemPositionHistory, error) {
	cur, err := m.positions.Find(ctx, bson.M{"collection_id": collectionID})
	if err != nil {
		return nil, err
	}
	var docs []positionsDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.ItemPositionHistory, 0, len(docs))
	dropped := 0
	for _, d := range docs {
		if d.ItemID == "" {
			dropped += len(d.Positions)
			continue
		}
		h, n := d.history()
		dropped += n
		out = append(out, h)
	}
	if dropped > 0 {
		m.log.Warn(ctx, "dropped malformed snapshots",
			logger.String("collection_id", collectionID),
			logger.Int("count", dropped))
	}
	return out, nil
}
