// Package region maps a caller's country to the pricing region whose offers
// appear on a leaderboard.
package region

import (
	"fmt"
	"sort"
	"strings"
)

// Region is a pricing area with a single currency.
type Region struct {
	Code     string `json:"code"`
	Currency string `json:"currency"`
}

var (
	us = Region{Code: "US", Currency: "USD"}
	eu = Region{Code: "EU", Currency: "EUR"}
	gb = Region{Code: "GB", Currency: "GBP"}
	jp = Region{Code: "JP", Currency: "JPY"}
	br = Region{Code: "BR", Currency: "BRL"}
	au = Region{Code: "AU", Currency: "AUD"}
)

var countries = map[string]Region{ //nolint:gochecknoglobals // static lookup table
	"us": us, "ca": us,
	"gb": gb,
	"jp": jp,
	"br": br,
	"au": au, "nz": au,

	"at": eu, "be": eu, "bg": eu, "hr": eu, "cy": eu, "cz": eu, "dk": eu, "ee": eu, "fi": eu,
	"fr": eu, "de": eu, "gr": eu, "hu": eu, "ie": eu, "it": eu, "lv": eu, "lt": eu, "lu": eu,
	"mt": eu, "nl": eu, "pl": eu, "pt": eu, "ro": eu, "sk": eu, "si": eu, "es": eu, "se": eu,
}

// Resolve returns the region for an ISO 3166-1 alpha-2 country code.
func Resolve(country string) (Region, error) {
	r, ok := countries[strings.ToLower(strings.TrimSpace(country))]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrNotFound, country)
	}
	return r, nil
}

// All returns every distinct region, ordered by code.
func All() []Region {
	seen := map[string]Region{}
	for _, r := range countries {
		seen[r.Code] = r
	}
	out := make([]Region, 0, len(seen))
	for _, r := range seen {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
