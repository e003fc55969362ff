package region

import "errors"

// Sentinel kinds for region errors.
var (
	ErrNotFound = errors.New("region not found")
)
