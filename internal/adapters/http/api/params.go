package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate //nolint:gochecknoglobals // validator caches struct metadata
	validateOnce sync.Once           //nolint:gochecknoglobals // guards validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// pageQuery holds the parameters shared by the paginated endpoints.
type pageQuery struct {
	Slug    string `validate:"required,max=128"`
	Country string `validate:"required,alpha,len=2"`
	Page    int    `validate:"min=0,max=1000000"`
	Limit   int    `validate:"min=0,max=1000"`
	Sort    string `validate:"omitempty,oneof=position discount"`
	Order   string `validate:"omitempty,oneof=asc desc"`
}

// imageQuery holds the parameters of the image endpoint.
type imageQuery struct {
	Slug    string `validate:"required,max=128"`
	Week    string `validate:"required"`
	Country string `validate:"required,alpha,len=2"`
	Force   bool
	Raw     bool
}

func parsePageQuery(r *http.Request) (pageQuery, error) {
	q := r.URL.Query()
	page, err := optionalInt(q.Get("page"))
	if err != nil {
		return pageQuery{}, fmt.Errorf("page: %w", err)
	}
	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		return pageQuery{}, fmt.Errorf("limit: %w", err)
	}
	pq := pageQuery{
		Slug:    chi.URLParam(r, "slug"),
		Country: strings.TrimSpace(q.Get("country")),
		Page:    page,
		Limit:   limit,
		Sort:    strings.ToLower(q.Get("sort")),
		Order:   strings.ToLower(q.Get("order")),
	}
	if err := check(pq); err != nil {
		return pageQuery{}, err
	}
	return pq, nil
}

func parseImageQuery(r *http.Request) (imageQuery, error) {
	q := r.URL.Query()
	force, err := optionalBool(q.Get("force"))
	if err != nil {
		return imageQuery{}, fmt.Errorf("force: %w", err)
	}
	raw, err := optionalBool(q.Get("raw"))
	if err != nil {
		return imageQuery{}, fmt.Errorf("raw: %w", err)
	}
	iq := imageQuery{
		Slug:    chi.URLParam(r, "slug"),
		Week:    chi.URLParam(r, "week"),
		Country: strings.TrimSpace(q.Get("country")),
		Force:   force,
		Raw:     raw,
	}
	if err := check(iq); err != nil {
		return imageQuery{}, err
	}
	return iq, nil
}

// check validates v and returns the first failure as a readable message.
func check(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%s failed %q validation", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return n, nil
}

func optionalBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("not a boolean: %q", s)
	}
	return b, nil
}
