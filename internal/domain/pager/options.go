package pager

import (
	"time"

	"github.com/okian/weekboard/pkg/logger"
)

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithDefaultLimit sets the page size used when the caller gives none.
func WithDefaultLimit(limit int) Option {
	return func(a *Assembler) {
		if limit > 0 {
			a.defaultLimit = limit
		}
	}
}

// WithMaxLimit caps the page size.
func WithMaxLimit(limit int) Option {
	return func(a *Assembler) {
		if limit > 0 {
			a.maxLimit = limit
		}
	}
}

// WithUpstreamTimeout bounds each catalog and price lookup.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(a *Assembler) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}
