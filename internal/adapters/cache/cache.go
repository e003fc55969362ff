// Package cache stores computed responses keyed by their full query identity.
//
// Backends are best effort: a read error is a miss and a write error is
// logged. Callers go through Lookup and Populate so the hit and miss
// branches stay explicit.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte-oriented key value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key joins an operation name, the schema version and the query parts into a
// cache key, e.g. weekly:v1:top-games:2025W31:US:1:20.
// Empty parts are kept so positions stay stable.
func Key(op, schema string, parts ...string) string {
	all := make([]string, 0, len(parts)+2) //nolint:mnd // op and schema
	all = append(all, op, schema)
	all = append(all, parts...)
	return strings.Join(all, ":")
}
