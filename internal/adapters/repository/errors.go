package repository

import "errors"

// Sentinel errors returned by the Mongo repository.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrEmptyURI           = errors.New("empty mongo uri")
)

var errMalformedDecimal = errors.New("malformed decimal")
