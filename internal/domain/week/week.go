// Package week parses ISO-8601 week identifiers and resolves their UTC bounds.
//
// Identifiers have the form YYYYWnn, e.g. 2025W31. Every consumer must use the
// half-open window returned by Resolve so that the first snapshot of the next
// week never leaks into the current one.
package week

import (
	"fmt"
	"time"

	"github.com/okian/weekboard/internal/domain/model"
)

const (
	idLength    = 7
	separator   = 'W'
	daysPerWeek = 7
	maxWeek     = 53
)

// ID identifies one ISO week.
type ID struct {
	Year int
	Week int
}

// String formats the identifier as YYYYWnn.
func (id ID) String() string { return Format(id.Year, id.Week) }

// Format builds an identifier from an ISO year and week number.
func Format(year, week int) string {
	return fmt.Sprintf("%04dW%02d", year, week)
}

// Of returns the ISO week containing t (evaluated in UTC).
func Of(t time.Time) ID {
	y, w := t.UTC().ISOWeek()
	return ID{Year: y, Week: w}
}

// Parse validates s and returns its week identifier.
func Parse(s string) (ID, error) {
	if len(s) != idLength || s[4] != separator {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	year, ok := digits(s[:4])
	if !ok {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	n, ok := digits(s[5:])
	if !ok || n < 1 || n > maxWeek {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if n > WeeksIn(year) {
		return ID{}, fmt.Errorf("%w: %q has no week %d", ErrInvalidFormat, s, n)
	}
	return ID{Year: year, Week: n}, nil
}

// Resolve parses s and returns its [start, end) window.
func Resolve(s string) (model.Window, error) {
	id, err := Parse(s)
	if err != nil {
		return model.Window{}, err
	}
	return id.Window(), nil
}

// Window returns the half-open UTC interval covered by the week.
func (id ID) Window() model.Window {
	start := firstMonday(id.Year).AddDate(0, 0, (id.Week-1)*daysPerWeek)
	return model.Window{Start: start, End: start.AddDate(0, 0, daysPerWeek)}
}

// WeeksIn returns 52 or 53, the number of ISO weeks in year.
func WeeksIn(year int) int {
	// Dec 28 always falls in the last ISO week of its year.
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// firstMonday returns the Monday of ISO week 1. January 4th is always in week 1.
func firstMonday(year int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % daysPerWeek // Monday == 0
	return jan4.AddDate(0, 0, -offset)
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
