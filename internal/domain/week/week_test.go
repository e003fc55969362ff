package week_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/weekboard/internal/domain/week"
	"github.com/smartystreets/goconvey/convey"
)

func utc(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	convey.Convey("Given well-formed week identifiers", t, func() {
		convey.Convey("When resolving 2025W31", func() {
			w, err := week.Resolve("2025W31")

			convey.Convey("Then it spans Monday 2025-07-28 to Monday 2025-08-04", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Start, convey.ShouldEqual, utc(2025, time.July, 28))
				convey.So(w.End, convey.ShouldEqual, utc(2025, time.August, 4))
			})
		})

		convey.Convey("When resolving 2025W01 (Jan 4 is a Saturday)", func() {
			w, err := week.Resolve("2025W01")

			convey.Convey("Then week 1 starts in the previous calendar year", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Start, convey.ShouldEqual, utc(2024, time.December, 30))
			})
		})

		convey.Convey("When resolving 2021W01 (Jan 4 is a Monday)", func() {
			w, err := week.Resolve("2021W01")

			convey.Convey("Then week 1 starts on Jan 4 itself", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Start, convey.ShouldEqual, utc(2021, time.January, 4))
			})
		})

		convey.Convey("When resolving week 53 of a long year", func() {
			w, err := week.Resolve("2020W53")

			convey.Convey("Then it ends where 2021W01 begins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Start, convey.ShouldEqual, utc(2020, time.December, 28))
				convey.So(w.End, convey.ShouldEqual, utc(2021, time.January, 4))
			})
		})
	})

	convey.Convey("Given malformed week identifiers", t, func() {
		bad := []string{"", "2025W54", "2025W00", "2025-31", "2025w31", "25W31", "2021W53", "abcdW01", "2025W3", "2025W031", "2025W3a"}

		for _, s := range bad {
			_, err := week.Resolve(s)
			convey.So(errors.Is(err, week.ErrInvalidFormat), convey.ShouldBeTrue)
		}
	})
}

func TestWindowProperties(t *testing.T) {
	convey.Convey("Given every valid week from 1990 to 2040", t, func() {
		convey.Convey("Then each window is seven days, starts Monday midnight UTC and tiles the timeline", func() {
			var prevEnd time.Time
			for year := 1990; year <= 2040; year++ {
				for n := 1; n <= week.WeeksIn(year); n++ {
					id := week.Format(year, n)
					w, err := week.Resolve(id)
					if err != nil {
						t.Fatalf("resolve %s: %v", id, err)
					}
					if w.End.Sub(w.Start) != 7*24*time.Hour {
						t.Fatalf("%s: window is %s long", id, w.End.Sub(w.Start))
					}
					if w.Start.Weekday() != time.Monday || w.Start.Hour() != 0 || w.Start.Location() != time.UTC {
						t.Fatalf("%s: start %s is not Monday midnight UTC", id, w.Start)
					}
					if got := week.Of(w.Start).String(); got != id {
						t.Fatalf("%s: Of(start) = %s", id, got)
					}
					if !prevEnd.IsZero() && !prevEnd.Equal(w.Start) {
						t.Fatalf("%s: gap or overlap with previous week (%s vs %s)", id, prevEnd, w.Start)
					}
					prevEnd = w.End
				}
			}
			convey.So(prevEnd.IsZero(), convey.ShouldBeFalse)
		})
	})
}

func TestOfAndFormat(t *testing.T) {
	convey.Convey("Given instants near a year boundary", t, func() {
		convey.So(week.Of(utc(2024, time.December, 31)).String(), convey.ShouldEqual, "2025W01")
		convey.So(week.Of(utc(2021, time.January, 3)).String(), convey.ShouldEqual, "2020W53")
		convey.So(week.Of(time.Date(2025, time.August, 3, 23, 59, 59, 0, time.UTC)).String(), convey.ShouldEqual, "2025W31")
	})

	convey.Convey("Given an instant in a non-UTC zone", t, func() {
		// 2025-08-04 01:00 in UTC+2 is still Sunday 23:00 UTC.
		zone := time.FixedZone("UTC+2", 2*60*60)
		convey.So(week.Of(time.Date(2025, time.August, 4, 1, 0, 0, 0, zone)).String(), convey.ShouldEqual, "2025W31")
	})

	convey.Convey("Given year lengths", t, func() {
		convey.So(week.WeeksIn(2020), convey.ShouldEqual, 53)
		convey.So(week.WeeksIn(2025), convey.ShouldEqual, 52)
		convey.So(week.WeeksIn(2026), convey.ShouldEqual, 53)
	})
}
