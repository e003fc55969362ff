package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrUnavailable = errors.New("cache unavailable")
	ErrDecode      = errors.New("cache payload decode failed")
)
