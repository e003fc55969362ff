package model

import "time"

// RankedEntry is an item plus its derived position for a specific window.
type RankedEntry struct {
	ItemID    string
	Position  int
	Snapshots []Snapshot // qualifying snapshots inside the window
}

// Element is one joined leaderboard row.
type Element struct {
	ItemID   string `json:"id"`
	Title    string `json:"title"`
	Image    string `json:"image,omitempty"`
	Position int    `json:"position"`
	Price    Price  `json:"price"`
}

// Page is the paginated leaderboard response.
type Page struct {
	Elements  []Element  `json:"elements"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
	Total     int        `json:"total"`
	Title     string     `json:"title"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
}

// RenderArtifact maps a content hash to a rendered, uploaded image.
type RenderArtifact struct {
	Hash            string    `json:"hash"`
	ExternalImageID string    `json:"externalImageId"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"createdAt"`
}
