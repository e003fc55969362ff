package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type countingCache struct {
	gets, sets int
	err        error
}

func (c *countingCache) Get(context.Context, string) ([]byte, bool, error) {
	c.gets++
	if c.err != nil {
		return nil, false, c.err
	}
	return []byte("v"), true, nil
}

func (c *countingCache) Set(context.Context, string, []byte, time.Duration) error {
	c.sets++
	return c.err
}

func TestBreakerCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a healthy backend behind a breaker", t, func() {
		next := &countingCache{}
		b := NewBreaker(next, "test-healthy", BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)

		v, ok, err := b.Get(ctx, "k")
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(string(v), ShouldEqual, "v")
		So(b.Set(ctx, "k", nil, time.Minute), ShouldBeNil)

		r, w := b.State()
		So(r, ShouldEqual, "closed")
		So(w, ShouldEqual, "closed")
	})

	Convey("Given a failing backend", t, func() {
		next := &countingCache{err: errors.New("conn refused")}
		b := NewBreaker(next, "test-failing", BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)

		Convey("When reads keep failing", func() {
			_, _, err1 := b.Get(ctx, "k")
			_, _, err2 := b.Get(ctx, "k")
			_, _, err3 := b.Get(ctx, "k")

			Convey("Then the circuit opens and the backend is no longer called", func() {
				So(err1, ShouldNotBeNil)
				So(err2, ShouldNotBeNil)
				So(errors.Is(err3, ErrUnavailable), ShouldBeTrue)
				So(next.gets, ShouldEqual, 2)
				r, w := b.State()
				So(r, ShouldEqual, "open")
				So(w, ShouldEqual, "closed")
			})
		})
	})
}
