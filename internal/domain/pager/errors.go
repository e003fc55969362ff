package pager

import "errors"

// Sentinel kinds for pager errors.
var (
	ErrInvalidSort  = errors.New("invalid sort key")
	ErrInvalidOrder = errors.New("invalid sort order")
)
