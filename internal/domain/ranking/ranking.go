// Package ranking turns item position histories into an ordered leaderboard
// for a time window.
//
// Ordering: position ASC, then itemID ASC (deterministic). Lower positions
// rank earlier, so the first entry is the leader.
package ranking

import (
	"sort"
	"time"

	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/internal/domain/week"
	"github.com/okian/weekboard/pkg/metrics"
)

// Rank computes the full, unpaginated ranking of histories inside w.
//
// An item contributes only if it has at least one snapshot with a positive
// position inside the window. Its position is taken from the most recent such
// snapshot; when several share that date, the larger position wins.
func Rank(w model.Window, histories []model.ItemPositionHistory) []model.RankedEntry {
	start := time.Now()
	defer func() {
		metrics.RecordRankingLatency(float64(time.Since(start).Milliseconds()))
	}()

	out := make([]model.RankedEntry, 0, len(histories))
	for _, h := range histories {
		entry, ok := rankItem(w, h)
		if !ok {
			continue
		}
		out = append(out, entry)
	}

	sortEntries(out)
	metrics.RecordRankedItems(len(out))
	return out
}

// rankItem selects the representative snapshot of one item.
func rankItem(w model.Window, h model.ItemPositionHistory) (model.RankedEntry, bool) {
	var (
		filtered []model.Snapshot
		best     model.Snapshot
	)
	for _, s := range h.Positions {
		if !s.Ranked() || !w.Contains(s.Date) {
			continue
		}
		if len(filtered) == 0 || later(s, best) {
			best = s
		}
		filtered = append(filtered, s)
	}
	if len(filtered) == 0 {
		return model.RankedEntry{}, false
	}
	return model.RankedEntry{
		ItemID:    h.ItemID,
		Position:  best.Position,
		Snapshots: filtered,
	}, true
}

// later returns true if a should replace b as the representative snapshot.
func later(a, b model.Snapshot) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.Position > b.Position // equal dates: the conservative rank wins
}

// less returns true if (aPos, aID) should appear before (bPos, bID).
func less(aPos int, aID string, bPos int, bID string) bool {
	if aPos != bPos {
		return aPos < bPos
	}
	return aID < bID
}

// sortEntries orders entries by position ascending and itemID ascending.
func sortEntries(entries []model.RankedEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return less(entries[i].Position, entries[i].ItemID, entries[j].Position, entries[j].ItemID)
	})
}

// Latest ranks every item by its most recent positive snapshot, regardless of date.
func Latest(histories []model.ItemPositionHistory) []model.RankedEntry {
	return Rank(model.AllTime, histories)
}

// Weeks returns the distinct ISO weeks, newest first, that contain at least
// one ranked snapshot.
func Weeks(histories []model.ItemPositionHistory) []week.ID {
	seen := make(map[week.ID]struct{})
	for _, h := range histories {
		for _, s := range h.Positions {
			if s.Ranked() {
				seen[week.Of(s.Date)] = struct{}{}
			}
		}
	}

	out := make([]week.ID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Week > out[j].Week
	})
	return out
}
