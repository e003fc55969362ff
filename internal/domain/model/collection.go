// Package model contains domain models passed between layers.
package model

import "time"

// Collection is a named, curated grouping of catalog items.
type Collection struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Snapshot is one timestamped position record for an item within a collection.
// Position 0 means the item was not ranked at that instant.
type Snapshot struct {
	Date     time.Time `json:"date"`
	Position int       `json:"position"`
}

// Ranked reports whether the snapshot carries a usable position.
func (s Snapshot) Ranked() bool { return s.Position > 0 }

// ItemPositionHistory is the ordered sequence of snapshots of one item.
type ItemPositionHistory struct {
	ItemID    string
	Positions []Snapshot // ascending by Date
}

// Window is a half-open UTC interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// AllTime is the window used by non-windowed listings.
var AllTime = Window{ //nolint:gochecknoglobals // immutable sentinel window
	Start: time.Time{},
	End:   time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC),
}
