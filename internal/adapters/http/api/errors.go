package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/weekboard/internal/app"
	"github.com/okian/weekboard/internal/domain/pager"
	"github.com/okian/weekboard/internal/domain/region"
	"github.com/okian/weekboard/internal/domain/week"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
)

// KindError annotates an error with the handler that produced it and the
// sentinel kind used to pick the HTTP status.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *KindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// Wrap annotates err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Op: op, Err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// classify maps an error to its HTTP status and public code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, week.ErrInvalidFormat):
		return http.StatusBadRequest, "invalid_week"
	case errors.Is(err, region.ErrNotFound):
		return http.StatusBadRequest, "region_not_found"
	case errors.Is(err, pager.ErrInvalidSort), errors.Is(err, pager.ErrInvalidOrder):
		return http.StatusBadRequest, "invalid_sort"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrCollectionNotFound):
		return http.StatusNotFound, "collection_not_found"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
