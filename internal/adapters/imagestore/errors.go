package imagestore

import "errors"

// Sentinel errors returned by the image store.
var (
	ErrBucketMissing = errors.New("bucket does not exist")
	ErrEmptyImage    = errors.New("empty image")
)
