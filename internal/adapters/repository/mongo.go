// Package repository implements the document store adapters on MongoDB.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/weekboard/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultDBName = "weekboard"

	collectionsCollection = "collections"
	positionsCollection   = "positions"
	catalogCollection     = "catalog"
	pricesCollection      = "prices"
	artifactsCollection   = "render_artifacts"
)

// Mongo owns the client and the collections backing every store.
type Mongo struct {
	client *mongodriver.Client
	db     *mongodriver.Database
	dbName string
	log    logger.Logger

	collections *mongodriver.Collection
	positions   *mongodriver.Collection
	catalog     *mongodriver.Collection
	prices      *mongodriver.Collection
	artifacts   *mongodriver.Collection
}

// New connects to MongoDB, pings the primary and ensures indexes.
func New(ctx context.Context, uri string, opts ...Option) (*Mongo, error) {
	const op = "repository/mongo/New"

	if uri == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyURI)
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%s: connect: %w", op, err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	m := &Mongo{
		client: cli,
		dbName: defaultDBName,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.db = cli.Database(m.dbName)
	m.collections = m.db.Collection(collectionsCollection)
	m.positions = m.db.Collection(positionsCollection)
	m.catalog = m.db.Collection(catalogCollection)
	m.prices = m.db.Collection(pricesCollection)
	m.artifacts = m.db.Collection(artifactsCollection)

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(context.Background())
		return nil, err
	}

	return m, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Database returns the database name in use.
func (m *Mongo) Database() string { return m.dbName }

// Catalog returns the catalog metadata store.
func (m *Mongo) Catalog() *CatalogStore { return &CatalogStore{coll: m.catalog} }

// Prices returns the region-scoped price store.
func (m *Mongo) Prices() *PriceStore { return &PriceStore{coll: m.prices, log: m.log} }

// Artifacts returns the render artifact registry.
func (m *Mongo) Artifacts() *ArtifactStore { return &ArtifactStore{coll: m.artifacts} }

// ensureIndexes creates the lookup indexes used by the stores:
//   - collections: unique slug
//   - positions: unique (collection_id, item_id)
//   - prices: unique (item_id, region)
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	const op = "repository/mongo/ensureIndexes"

	if _, err := m.collections.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetName("uniq_slug").SetUnique(true),
	}); err != nil {
		return fmt.Errorf("%s: collections: %w", op, err)
	}

	if _, err := m.positions.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "collection_id", Value: 1}, {Key: "item_id", Value: 1}},
		Options: options.Index().SetName("uniq_collection_item").SetUnique(true),
	}); err != nil {
		return fmt.Errorf("%s: positions: %w", op, err)
	}

	if _, err := m.prices.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "item_id", Value: 1}, {Key: "region", Value: 1}},
		Options: options.Index().SetName("uniq_item_region").SetUnique(true),
	}); err != nil {
		return fmt.Errorf("%s: prices: %w", op, err)
	}

	return nil
}
