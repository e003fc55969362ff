package service_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/weekboard/internal/app"
	"github.com/okian/weekboard/internal/domain/artifact"
	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/internal/domain/pager"
	"github.com/okian/weekboard/internal/domain/region"
	"github.com/okian/weekboard/internal/domain/week"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeCollections struct {
	err error
}

func (f *fakeCollections) FindBySlug(_ context.Context, slug string) (model.Collection, error) {
	if f.err != nil {
		return model.Collection{}, f.err
	}
	if slug != "top" {
		return model.Collection{}, service.ErrCollectionNotFound
	}
	return model.Collection{ID: "c1", Slug: "top", Name: "Top Sellers", UpdatedAt: time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)}, nil
}

type fakeSnapshots struct {
	calls atomic.Int32
	err   error
}

func day(d int) time.Time {
	return time.Date(2025, time.July, 28+d, 10, 0, 0, 0, time.UTC)
}

func (f *fakeSnapshots) ListPositions(_ context.Context, id string) ([]model.ItemPositionHistory, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []model.ItemPositionHistory{
		{ItemID: "a", Positions: []model.Snapshot{{Date: day(1), Position: 2}}},
		{ItemID: "b", Positions: []model.Snapshot{{Date: day(2), Position: 1}}},
		{ItemID: "c", Positions: []model.Snapshot{{Date: day(2), Position: 0}}},
		{ItemID: "d", Positions: []model.Snapshot{{Date: day(-3), Position: 3}}},
	}, nil
}

type fakeCatalog struct{}

func (fakeCatalog) GetByIDs(_ context.Context, ids []string) ([]model.CatalogItem, error) {
	out := make([]model.CatalogItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.CatalogItem{ID: id, Title: "Item " + id})
	}
	return out, nil
}

type fakePrices struct {
	mu        sync.Mutex
	discounts map[string]string
}

func (f *fakePrices) GetByIDs(_ context.Context, ids []string, reg string) ([]model.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Offer, 0, len(ids))
	for _, id := range ids {
		dp := "10"
		if v, ok := f.discounts[id]; ok {
			dp = v
		}
		out = append(out, model.Offer{OfferID: id, Price: model.Price{
			OriginalPrice: decimal.RequireFromString("20"),
			DiscountPrice: decimal.RequireFromString(dp),
			Discount:      50,
			CurrencyCode:  reg,
		}})
	}
	return out, nil
}

func (f *fakePrices) set(id, dp string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discounts[id] = dp
}

type fakeRegistry struct {
	mu   sync.Mutex
	arts map[string]model.RenderArtifact
}

func (r *fakeRegistry) FindByHash(_ context.Context, h string) (model.RenderArtifact, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.arts[h]
	return a, ok, nil
}

func (r *fakeRegistry) Upsert(_ context.Context, a model.RenderArtifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arts[a.Hash] = a
	return nil
}

type fakeRenderer struct {
	calls atomic.Int32
	err   error
}

func (r *fakeRenderer) Render(_ context.Context, l artifact.Layout) ([]byte, error) {
	r.calls.Add(1)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("png:" + l.Week + ":" + l.Region), nil
}

type fakeImages struct {
	n atomic.Int32
}

func (f *fakeImages) Upload(context.Context, []byte, string) (string, error) {
	return "img-" + strconv.Itoa(int(f.n.Add(1))), nil
}

func (f *fakeImages) URL(id string) string { return "https://cdn.test/" + id }

func newService(t *testing.T, snaps *fakeSnapshots, colls *fakeCollections, prices *fakePrices, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithCollections(colls),
		service.WithSnapshots(snaps),
		service.WithCatalog(fakeCatalog{}),
		service.WithPrices(prices),
	}
	svc, err := service.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func waitForWrites(svc *service.Service, n int64) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if svc.GetStats()["cacheWritesProcessed"].(int64) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given missing collaborators", t, func() {
		_, err := service.New()

		Convey("Then construction fails", func() {
			So(errors.Is(err, service.ErrMissingDependency), ShouldBeTrue)
		})
	})

	Convey("Given all required collaborators", t, func() {
		svc := newService(t, &fakeSnapshots{}, &fakeCollections{}, &fakePrices{discounts: map[string]string{}})

		Convey("Then it starts and stops cleanly", func() {
			ctx := context.Background()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, false)
			So(svc.Stop(ctx), ShouldBeNil)
		})
	})
}

func TestService_WeeklyLeaderboard(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx := context.Background()
		snaps := &fakeSnapshots{}
		svc := newService(t, snaps, &fakeCollections{}, &fakePrices{discounts: map[string]string{}})
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When requesting 2025W31 for a EU country", func() {
			page, err := svc.WeeklyLeaderboard(ctx, "top", "2025W31", "DE", 1, 10)

			Convey("Then only items ranked inside the week are listed in order", func() {
				So(err, ShouldBeNil)
				So(page.Total, ShouldEqual, 2)
				So(page.Elements, ShouldHaveLength, 2)
				So(page.Elements[0].ItemID, ShouldEqual, "b")
				So(page.Elements[1].ItemID, ShouldEqual, "a")
				So(page.Elements[0].Price.CurrencyCode, ShouldEqual, "EU")
				So(page.Title, ShouldEqual, "Top Sellers")
				So(page.Start.Equal(time.Date(2025, 7, 28, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(page.End.Equal(time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})

			Convey("And a repeated request is served from the cache", func() {
				waitForWrites(svc, 1)
				again, err := svc.WeeklyLeaderboard(ctx, "top", "2025W31", "de", 1, 10)
				So(err, ShouldBeNil)
				So(again.Total, ShouldEqual, page.Total)
				So(snaps.calls.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the limit exceeds the maximum", func() {
			page, err := svc.WeeklyLeaderboard(ctx, "top", "2025W31", "us", 0, 500)
			So(err, ShouldBeNil)
			So(page.Page, ShouldEqual, 1)
			So(page.Limit, ShouldEqual, 50)
		})

		Convey("When the week is malformed", func() {
			_, err := svc.WeeklyLeaderboard(ctx, "top", "2025-31", "us", 1, 10)

			Convey("Then it fails before any store access", func() {
				So(errors.Is(err, week.ErrInvalidFormat), ShouldBeTrue)
				So(snaps.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the country is unknown", func() {
			_, err := svc.WeeklyLeaderboard(ctx, "top", "2025W31", "zz", 1, 10)

			Convey("Then it fails before any store access", func() {
				So(errors.Is(err, region.ErrNotFound), ShouldBeTrue)
				So(snaps.calls.Load(), ShouldEqual, 0)
			})
		})

		Convey("When the collection is unknown", func() {
			_, err := svc.WeeklyLeaderboard(ctx, "nope", "2025W31", "us", 1, 10)
			So(errors.Is(err, service.ErrCollectionNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a failing snapshot store", t, func() {
		snaps := &fakeSnapshots{err: errors.New("connection refused")}
		svc := newService(t, snaps, &fakeCollections{}, &fakePrices{discounts: map[string]string{}})

		Convey("Then the request fails as upstream unavailable", func() {
			_, err := svc.WeeklyLeaderboard(context.Background(), "top", "2025W31", "us", 1, 10)
			So(errors.Is(err, service.ErrUpstreamUnavailable), ShouldBeTrue)
		})
	})
}

func TestService_CollectionItemsAndWeeks(t *testing.T) {
	Convey("Given a service", t, func() {
		ctx := context.Background()
		prices := &fakePrices{discounts: map[string]string{"a": "5", "b": "15", "d": "1"}}
		svc := newService(t, &fakeSnapshots{}, &fakeCollections{}, prices)

		Convey("When listing items without a window", func() {
			page, err := svc.CollectionItems(ctx, "top", "jp", 1, 10, "", "")

			Convey("Then every ranked item is listed by latest position", func() {
				So(err, ShouldBeNil)
				So(page.Total, ShouldEqual, 3)
				ids := []string{}
				for _, e := range page.Elements {
					ids = append(ids, e.ItemID)
				}
				So(ids, ShouldResemble, []string{"b", "a", "d"})
				So(page.Start, ShouldBeNil)
			})
		})

		Convey("When sorting by discount price", func() {
			page, err := svc.CollectionItems(ctx, "top", "jp", 1, 10, pager.SortDiscount, pager.OrderAsc)
			So(err, ShouldBeNil)
			So(page.Elements[0].ItemID, ShouldEqual, "d")
		})

		Convey("When the sort key is unknown", func() {
			_, err := svc.CollectionItems(ctx, "top", "jp", 1, 10, "title", "")
			So(errors.Is(err, pager.ErrInvalidSort), ShouldBeTrue)
		})

		Convey("When listing weeks", func() {
			weeks, err := svc.Weeks(ctx, "top")
			So(err, ShouldBeNil)
			So(weeks, ShouldResemble, []string{"2025W31", "2025W30"})
		})
	})
}

func TestService_LeaderboardArtifact(t *testing.T) {
	Convey("Given a service with image rendering", t, func() {
		ctx := context.Background()
		prices := &fakePrices{discounts: map[string]string{}}
		rnd := &fakeRenderer{}
		images := &fakeImages{}
		reg := &fakeRegistry{arts: map[string]model.RenderArtifact{}}
		svc := newService(t, &fakeSnapshots{}, &fakeCollections{}, prices,
			service.WithArtifacts(reg, rnd, images))

		Convey("When the same leaderboard is requested twice", func() {
			first, err := svc.LeaderboardArtifact(ctx, "top", "2025W31", "us", false, false)
			So(err, ShouldBeNil)
			second, err := svc.LeaderboardArtifact(ctx, "top", "2025W31", "us", false, false)
			So(err, ShouldBeNil)

			Convey("Then the image is rendered and uploaded once", func() {
				So(first.ExternalImageID, ShouldEqual, second.ExternalImageID)
				So(second.Cached, ShouldBeTrue)
				So(rnd.calls.Load(), ShouldEqual, 1)
				So(images.n.Load(), ShouldEqual, 1)
			})
		})

		Convey("When a price changes between requests", func() {
			first, err := svc.LeaderboardArtifact(ctx, "top", "2025W31", "ca", false, false)
			So(err, ShouldBeNil)
			prices.set("a", "7.50")
			svc2 := newService(t, &fakeSnapshots{}, &fakeCollections{}, prices,
				service.WithArtifacts(reg, rnd, images))
			second, err := svc2.LeaderboardArtifact(ctx, "top", "2025W31", "ca", false, false)
			So(err, ShouldBeNil)

			Convey("Then a new image is produced", func() {
				So(second.Hash, ShouldNotEqual, first.Hash)
				So(second.ExternalImageID, ShouldNotEqual, first.ExternalImageID)
			})
		})

		Convey("When raw bytes are requested", func() {
			res, err := svc.LeaderboardArtifact(ctx, "top", "2025W31", "us", false, true)
			So(err, ShouldBeNil)
			So(string(res.Bytes), ShouldEqual, "png:2025W31:US")
			So(images.n.Load(), ShouldEqual, 0)
		})

		Convey("When rendering fails", func() {
			rnd.err = errors.New("boom")
			_, err := svc.LeaderboardArtifact(ctx, "top", "2025W31", "us", true, false)
			So(errors.Is(err, service.ErrUpstreamUnavailable), ShouldBeTrue)
			So(errors.Is(err, artifact.ErrRenderFailed), ShouldBeTrue)
		})
	})

	Convey("Given a service without image rendering", t, func() {
		svc := newService(t, &fakeSnapshots{}, &fakeCollections{}, &fakePrices{discounts: map[string]string{}})
		_, err := svc.LeaderboardArtifact(context.Background(), "top", "2025W31", "us", false, false)
		So(errors.Is(err, service.ErrUpstreamUnavailable), ShouldBeTrue)
	})
}
