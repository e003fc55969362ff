package service

import (
	"errors"

	"github.com/okian/weekboard/internal/adapters/repository"
)

var (
	// ErrUpstreamUnavailable marks failures of the snapshot store, renderer or image store.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrMissingDependency is returned by New when a required collaborator is absent.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrCollectionNotFound is returned for unknown collection slugs.
	ErrCollectionNotFound = repository.ErrCollectionNotFound
)
