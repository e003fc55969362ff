package repository

import (
	"context"
	"fmt"

	"github.com/okian/weekboard/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertCollection stores c keyed by its id.
func (m *Mongo) UpsertCollection(ctx context.Context, c model.Collection) error {
	const op = "repository/mongo/UpsertCollection"

	doc := collectionDoc{ID: c.ID, Slug: c.Slug, Name: c.Name, UpdatedAt: c.UpdatedAt.UTC()}
	if _, err := m.collections.ReplaceOne(ctx, bson.M{"_id": c.ID}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReplacePositions writes the histories of a collection, one document per item.
func (m *Mongo) ReplacePositions(ctx context.Context, collectionID string, histories []model.ItemPositionHistory) error {
	const op = "repository/mongo/ReplacePositions"

	if len(histories) == 0 {
		return nil
	}
	writes := make([]mongodriver.WriteModel, 0, len(histories))
	for _, h := range histories {
		filter := bson.M{"collection_id": collectionID, "item_id": h.ItemID}
		writes = append(writes, mongodriver.NewReplaceOneModel().
			SetFilter(filter).
			SetReplacement(newPositionsDoc(collectionID, h)).
			SetUpsert(true))
	}
	if _, err := m.positions.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpsertCatalog writes catalog items keyed by id.
func (s *CatalogStore) UpsertCatalog(ctx context.Context, items []model.CatalogItem) error {
	const op = "repository/mongo/Catalog.Upsert"

	if len(items) == 0 {
		return nil
	}
	writes := make([]mongodriver.WriteModel, 0, len(items))
	for _, it := range items {
		doc := catalogDoc{ID: it.ID, Title: it.Title, Images: it.Images}
		writes = append(writes, mongodriver.NewReplaceOneModel().
			SetFilter(bson.M{"_id": it.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if _, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpsertPrices writes offers for one region keyed by (item, region).
func (s *PriceStore) UpsertPrices(ctx context.Context, region string, offers []model.Offer) error {
	const op = "repository/mongo/Prices.Upsert"

	if len(offers) == 0 {
		return nil
	}
	writes := make([]mongodriver.WriteModel, 0, len(offers))
	for _, o := range offers {
		doc, err := newPriceWriteDoc(region, o)
		if err != nil {
			return fmt.Errorf("%s: item %s: %w", op, o.OfferID, err)
		}
		writes = append(writes, mongodriver.NewReplaceOneModel().
			SetFilter(bson.M{"item_id": o.OfferID, "region": region}).
			SetReplacement(doc).
			SetUpsert(true))
	}
	if _, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpsertCatalog writes catalog items; see CatalogStore.UpsertCatalog.
func (m *Mongo) UpsertCatalog(ctx context.Context, items []model.CatalogItem) error {
	return m.Catalog().UpsertCatalog(ctx, items)
}

// UpsertPrices writes offers for one region; see PriceStore.UpsertPrices.
func (m *Mongo) UpsertPrices(ctx context.Context, region string, offers []model.Offer) error {
	return m.Prices().UpsertPrices(ctx, region, offers)
}
