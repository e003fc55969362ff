package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/okian/weekboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
)

const testTimeout = 10 * time.Second

// TestMain starts one MongoDB container for the package when
// GO_TEST_INTEGRATION is set and exports its address as MONGO_TEST_URI.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, err := mongoC.Host(ctx)
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := mongoC.MappedPort(ctx, "27017/tcp")
	if err != nil {
		_ = mongoC.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get mapped port: %v\n", err)
		os.Exit(1)
	}
	_ = os.Setenv("MONGO_TEST_URI", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

func newTestMongo(t *testing.T) *Mongo {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	db := "weekboard_test_" + uuid.NewString()[:8]
	m, err := New(ctx, os.Getenv("MONGO_TEST_URI"), WithDatabase(db))
	if err != nil {
		t.Fatalf("connect mongo: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		defer cancel()
		_ = m.db.Drop(ctx)
		_ = m.Close(ctx)
	})
	return m
}

func TestNew_EmptyURI(t *testing.T) {
	Convey("Given no uri", t, func() {
		_, err := New(context.Background(), "")
		So(errors.Is(err, ErrEmptyURI), ShouldBeTrue)
	})
}

func TestIntegration_Collections(t *testing.T) {
	m := newTestMongo(t)
	ctx := context.Background()

	Convey("Given a stored collection with positions", t, func() {
		c := model.Collection{ID: uuid.NewString(), Slug: "top-sellers", Name: "Top Sellers", UpdatedAt: time.Now().UTC().Truncate(time.Millisecond)}
		So(m.UpsertCollection(ctx, c), ShouldBeNil)

		d := time.Date(2025, time.July, 29, 0, 0, 0, 0, time.UTC)
		So(m.ReplacePositions(ctx, c.ID, []model.ItemPositionHistory{
			historyOf("a", d, 2),
			historyOf("b", d.Add(time.Hour), 1),
		}), ShouldBeNil)

		Convey("Then it is found by slug", func() {
			got, err := m.FindBySlug(ctx, "top-sellers")
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, c.ID)
			So(got.UpdatedAt.Equal(c.UpdatedAt), ShouldBeTrue)
		})

		Convey("Then an unknown slug is not found", func() {
			_, err := m.FindBySlug(ctx, "nope")
			So(errors.Is(err, ErrCollectionNotFound), ShouldBeTrue)
		})

		Convey("Then all histories come back in one call", func() {
			hs, err := m.ListPositions(ctx, c.ID)
			So(err, ShouldBeNil)
			So(hs, ShouldHaveLength, 2)
		})

		Convey("When a legacy record lacks dates", func() {
			_, err := m.positions.InsertOne(ctx, bson.M{
				"collection_id": c.ID,
				"item_id":       "legacy",
				"positions": bson.A{
					bson.M{"position": 3},
					bson.M{"date": d, "position": 5},
				},
			})
			So(err, ShouldBeNil)

			Convey("Then the incomplete snapshot is sanitized away", func() {
				hs, err := m.ListPositions(ctx, c.ID)
				So(err, ShouldBeNil)
				for _, h := range hs {
					if h.ItemID == "legacy" {
						So(h.Positions, ShouldHaveLength, 1)
						So(h.Positions[0].Position, ShouldEqual, 5)
					}
				}
			})
		})
	})
}

func TestIntegration_CatalogPricesArtifacts(t *testing.T) {
	m := newTestMongo(t)
	ctx := context.Background()

	Convey("Given catalog items and prices", t, func() {
		So(m.Catalog().UpsertCatalog(ctx, []model.CatalogItem{
			{ID: "a", Title: "Alpha", Images: []string{"a.png"}},
			{ID: "b", Title: "Beta"},
		}), ShouldBeNil)
		So(m.Prices().UpsertPrices(ctx, "EU", []model.Offer{offerOf("a", "10.00", "5.00", 50)}), ShouldBeNil)

		Convey("Then only known items are returned", func() {
			items, err := m.Catalog().GetByIDs(ctx, []string{"a", "b", "zzz"})
			So(err, ShouldBeNil)
			So(items, ShouldHaveLength, 2)
		})

		Convey("Then prices are scoped to the region", func() {
			eu, err := m.Prices().GetByIDs(ctx, []string{"a", "b"}, "EU")
			So(err, ShouldBeNil)
			So(eu, ShouldHaveLength, 1)
			So(eu[0].Price.DiscountPrice.String(), ShouldEqual, "5")

			us, err := m.Prices().GetByIDs(ctx, []string{"a"}, "US")
			So(err, ShouldBeNil)
			So(us, ShouldBeEmpty)
		})

		Convey("Then string-typed legacy prices still decode", func() {
			_, err := m.prices.InsertOne(ctx, bson.M{
				"item_id": "b", "region": "EU",
				"original_price": "8.50", "discount_price": "8.50", "discount": 0, "currency": "EUR",
			})
			So(err, ShouldBeNil)
			eu, err := m.Prices().GetByIDs(ctx, []string{"b"}, "EU")
			So(err, ShouldBeNil)
			So(eu, ShouldHaveLength, 1)
			So(eu[0].Price.OriginalPrice.String(), ShouldEqual, "8.5")
		})
	})

	Convey("Given the artifact registry", t, func() {
		reg := m.Artifacts()

		Convey("Then an unknown hash is a clean miss", func() {
			_, ok, err := reg.FindByHash(ctx, "missing")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})

		Convey("Then upserts are last-writer-wins", func() {
			So(reg.Upsert(ctx, model.RenderArtifact{Hash: "h1", ExternalImageID: "img-1", URL: "u1", CreatedAt: time.Now()}), ShouldBeNil)
			So(reg.Upsert(ctx, model.RenderArtifact{Hash: "h1", ExternalImageID: "img-2", URL: "u2", CreatedAt: time.Now()}), ShouldBeNil)
			got, ok, err := reg.FindByHash(ctx, "h1")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(got.ExternalImageID, ShouldEqual, "img-2")
		})
	})
}
