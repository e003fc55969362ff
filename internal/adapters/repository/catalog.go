package repository

import (
	"context"
	"fmt"

	"github.com/okian/weekboard/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// CatalogStore serves item metadata.
type CatalogStore struct {
	coll *mongodriver.Collection
}

// GetByIDs returns the catalog items found among ids. Unknown ids are omitted.
func (s *CatalogStore) GetByIDs(ctx context.Context, ids []string) ([]model.CatalogItem, error) {
	const op = "repository/mongo/Catalog.GetByIDs"

	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var docs []catalogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]model.CatalogItem, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.CatalogItem{ID: d.ID, Title: d.Title, Images: d.Images})
	}
	return out, nil
}
