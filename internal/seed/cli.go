package seed

import "os"

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	os.Stdout.WriteString(`weekboard seed tool
===================

Generates a synthetic collection (catalog items, prices for every region and
daily position snapshots) and writes it to MongoDB.

Usage:
  go run ./cmd/seed [options]

Options:
  -url string        MongoDB URI (default "mongodb://localhost:27017")
  -database string   Database name (default "weekboard")
  -slug string       Collection slug (default "top-sellers")
  -name string       Collection name (default "Top Sellers")
  -items int         Number of items (default 120)
  -weeks int         Weeks of history ending today (default 8)
  -seed uint         Random seed (default 1)
  -gap float         Probability of a missing daily snapshot (default 0.1)
  -zero float        Probability of an unranked snapshot (default 0.05)
  -workers int       Concurrent write batches (default 4)
  -help              Show this help message

Examples:
  go run ./cmd/seed -slug weekly-deals -items 300 -weeks 12
`)
}
