package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/weekboard/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ArtifactStore maps content hashes to uploaded images.
type ArtifactStore struct {
	coll *mongodriver.Collection
}

// FindByHash returns the artifact for hash. The boolean is false when none is registered.
func (s *ArtifactStore) FindByHash(ctx context.Context, hash string) (model.RenderArtifact, bool, error) {
	const op = "repository/mongo/Artifacts.FindByHash"

	var doc artifactDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": hash}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return model.RenderArtifact{}, false, nil
		}
		return model.RenderArtifact{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return doc.model(), true, nil
}

// Upsert stores a, replacing any artifact with the same hash.
func (s *ArtifactStore) Upsert(ctx context.Context, a model.RenderArtifact) error {
	const op = "repository/mongo/Artifacts.Upsert"

	doc := artifactDoc{
		Hash:            a.Hash,
		ExternalImageID: a.ExternalImageID,
		URL:             a.URL,
		CreatedAt:       a.CreatedAt.UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": a.Hash}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
