package repository

import (
	"context"
	"fmt"

	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// PriceStore serves region-scoped prices.
type PriceStore struct {
	coll *mongodriver.Collection
	log  logger.Logger
}

// GetByIDs returns the offers for ids in region. Items without a price, or
// with an unparseable one, are omitted.
func (s *PriceStore) GetByIDs(ctx context.Context, ids []string, region string) ([]model.Offer, error) {
	const op = "repository/mongo/Prices.GetByIDs"

	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"item_id": bson.M{"$in": ids}, "region": region})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []priceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.Offer, 0, len(docs))
	for _, d := range docs {
		o, err := d.offer()
		if err != nil {
			s.log.Warn(ctx, "skipping malformed price",
				logger.String("item_id", d.ItemID),
				logger.String("region", region),
				logger.Error(err))
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
