package week

import "errors"

// Sentinel kinds for week errors.
var (
	ErrInvalidFormat = errors.New("invalid week format")
)
