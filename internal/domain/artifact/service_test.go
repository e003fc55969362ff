package artifact

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/weekboard/internal/domain/model"
)

type fakeRegistry struct {
	mu       sync.Mutex
	byHash   map[string]model.RenderArtifact
	readErr  error
	writeErr error
	upserts  int
}

func newRegistry() *fakeRegistry { return &fakeRegistry{byHash: map[string]model.RenderArtifact{}} }

func (r *fakeRegistry) FindByHash(_ context.Context, hash string) (model.RenderArtifact, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readErr != nil {
		return model.RenderArtifact{}, false, r.readErr
	}
	a, ok := r.byHash[hash]
	return a, ok, nil
}

func (r *fakeRegistry) Upsert(_ context.Context, a model.RenderArtifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.writeErr != nil {
		return r.writeErr
	}
	r.byHash[a.Hash] = a
	return nil
}

type fakeRenderer struct {
	calls int
	err   error
	last  Layout
}

func (f *fakeRenderer) Render(_ context.Context, l Layout) ([]byte, error) {
	f.calls++
	f.last = l
	if f.err != nil {
		return nil, f.err
	}
	return []byte(fmt.Sprintf("png:%d", len(l.Rows))), nil
}

type fakeStore struct {
	uploads int
	err     error
}

func (f *fakeStore) Upload(_ context.Context, _ []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if contentType != ContentType {
		return "", errors.New("unexpected content type")
	}
	f.uploads++
	return fmt.Sprintf("img-%d", f.uploads), nil
}

func (f *fakeStore) URL(id string) string { return "https://cdn.example/" + id }

func rows() []model.Element {
	return []model.Element{
		{ItemID: "a", Title: "Alpha", Position: 1, Price: model.Price{
			OriginalPrice: decimal.RequireFromString("59.99"), DiscountPrice: decimal.RequireFromString("29.99"),
			Discount: 50, CurrencyCode: "USD",
		}},
		{ItemID: "b", Title: "Beta", Position: 2, Price: model.Price{
			OriginalPrice: decimal.RequireFromString("19.99"), DiscountPrice: decimal.RequireFromString("19.99"),
			CurrencyCode: "USD",
		}},
	}
}

func layoutOf(week, region string, elements []model.Element) Layout {
	return Layout{Title: "Top", Week: week, Region: region, Currency: "USD", Rows: elements}
}

func TestHash(t *testing.T) {
	Convey("Given leaderboard rows", t, func() {
		h1, err := Hash(layoutOf("2025W31", "US", rows()))
		So(err, ShouldBeNil)
		So(h1, ShouldHaveLength, 64)

		Convey("Then equal content hashes equally", func() {
			h2, _ := Hash(layoutOf("2025W31", "US", rows()))
			So(h2, ShouldEqual, h1)
		})

		Convey("Then trailing zeros in prices do not change the hash", func() {
			r := rows()
			r[0].Price.DiscountPrice = decimal.RequireFromString("29.990")
			h2, _ := Hash(layoutOf("2025W31", "US", r))
			So(h2, ShouldEqual, h1)
		})

		Convey("Then a price change yields a different hash", func() {
			r := rows()
			r[1].Price.DiscountPrice = decimal.RequireFromString("9.99")
			h2, _ := Hash(layoutOf("2025W31", "US", r))
			So(h2, ShouldNotEqual, h1)
		})

		Convey("Then week and region are part of the identity", func() {
			h2, _ := Hash(layoutOf("2025W32", "US", rows()))
			h3, _ := Hash(layoutOf("2025W31", "EU", rows()))
			So(h2, ShouldNotEqual, h1)
			So(h3, ShouldNotEqual, h1)
		})

		Convey("Then the drawn title and currency are part of the identity", func() {
			renamed := layoutOf("2025W31", "US", rows())
			renamed.Title = "Most Wishlisted"
			otherCurrency := layoutOf("2025W31", "US", rows())
			otherCurrency.Currency = "CAD"
			h2, _ := Hash(renamed)
			h3, _ := Hash(otherCurrency)
			So(h2, ShouldNotEqual, h1)
			So(h3, ShouldNotEqual, h1)
		})

		Convey("Then the image url is not part of the identity", func() {
			r := rows()
			r[0].Image = "https://elsewhere/cover.png"
			h2, _ := Hash(layoutOf("2025W31", "US", r))
			So(h2, ShouldEqual, h1)
		})
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty registry", t, func() {
		reg, ren, st := newRegistry(), &fakeRenderer{}, &fakeStore{}
		fixed := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
		s := New(reg, ren, st, WithClock(func() time.Time { return fixed }))
		req := Request{Week: "2025W31", Region: "US", Title: "Top", Elements: rows()}

		Convey("When resolving the same content twice", func() {
			first, err1 := s.Resolve(ctx, req)
			second, err2 := s.Resolve(ctx, req)

			Convey("Then the second call reuses the image without rendering", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Cached, ShouldBeFalse)
				So(second.Cached, ShouldBeTrue)
				So(second.ExternalImageID, ShouldEqual, first.ExternalImageID)
				So(second.URL, ShouldEqual, "https://cdn.example/img-1")
				So(ren.calls, ShouldEqual, 1)
				So(st.uploads, ShouldEqual, 1)
				So(reg.byHash[first.Hash].CreatedAt, ShouldEqual, fixed)
			})
		})

		Convey("When a price changes between calls", func() {
			first, _ := s.Resolve(ctx, req)
			changed := req
			changed.Elements = rows()
			changed.Elements[0].Price.DiscountPrice = decimal.RequireFromString("24.99")
			second, _ := s.Resolve(ctx, changed)

			Convey("Then a new image is produced", func() {
				So(second.Hash, ShouldNotEqual, first.Hash)
				So(second.ExternalImageID, ShouldNotEqual, first.ExternalImageID)
				So(ren.calls, ShouldEqual, 2)
			})
		})

		Convey("When another collection has identical rows", func() {
			first, _ := s.Resolve(ctx, req)
			other := req
			other.Title = "Most Wishlisted"
			second, err := s.Resolve(ctx, other)

			Convey("Then it gets its own image with its own header", func() {
				So(err, ShouldBeNil)
				So(second.Cached, ShouldBeFalse)
				So(second.Hash, ShouldNotEqual, first.Hash)
				So(second.ExternalImageID, ShouldNotEqual, first.ExternalImageID)
				So(ren.calls, ShouldEqual, 2)
				So(ren.last.Title, ShouldEqual, "Most Wishlisted")
			})
		})

		Convey("When forcing a re-render", func() {
			_, _ = s.Resolve(ctx, req)
			forced := req
			forced.Force = true
			res, err := s.Resolve(ctx, forced)

			Convey("Then the registry is bypassed and overwritten", func() {
				So(err, ShouldBeNil)
				So(res.Cached, ShouldBeFalse)
				So(res.ExternalImageID, ShouldEqual, "img-2")
				So(reg.byHash[res.Hash].ExternalImageID, ShouldEqual, "img-2")
				So(reg.upserts, ShouldEqual, 2)
			})
		})

		Convey("When asking for raw bytes", func() {
			raw := req
			raw.Raw = true
			res, err := s.Resolve(ctx, raw)

			Convey("Then bytes are returned with no upload or registry write", func() {
				So(err, ShouldBeNil)
				So(string(res.Bytes), ShouldEqual, "png:2")
				So(res.ContentType, ShouldEqual, "image/png")
				So(st.uploads, ShouldEqual, 0)
				So(reg.upserts, ShouldEqual, 0)
			})
		})

		Convey("When the renderer fails", func() {
			ren.err = errors.New("no font")
			_, err := s.Resolve(ctx, req)

			Convey("Then the request fails and nothing is registered", func() {
				So(errors.Is(err, ErrRenderFailed), ShouldBeTrue)
				So(reg.upserts, ShouldEqual, 0)
			})
		})

		Convey("When the upload fails", func() {
			st.err = errors.New("bucket gone")
			_, err := s.Resolve(ctx, req)

			Convey("Then the request fails and nothing is registered", func() {
				So(errors.Is(err, ErrUploadFailed), ShouldBeTrue)
				So(reg.upserts, ShouldEqual, 0)
			})
		})

		Convey("When the registry cannot be read", func() {
			reg.readErr = errors.New("mongo down")
			res, err := s.Resolve(ctx, req)

			Convey("Then it is treated as a miss", func() {
				So(err, ShouldBeNil)
				So(res.ExternalImageID, ShouldEqual, "img-1")
				So(ren.calls, ShouldEqual, 1)
			})
		})

		Convey("When the registry cannot be written after upload", func() {
			reg.writeErr = errors.New("mongo down")
			res, err := s.Resolve(ctx, req)

			Convey("Then the uploaded image is still returned", func() {
				So(err, ShouldBeNil)
				So(res.URL, ShouldEqual, "https://cdn.example/img-1")
			})
		})

		Convey("When the layout is drawn", func() {
			_, _ = s.Resolve(ctx, req)
			So(ren.last.Week, ShouldEqual, "2025W31")
			So(ren.last.Title, ShouldEqual, "Top")
			So(ren.last.Rows, ShouldHaveLength, 2)
		})
	})
}
