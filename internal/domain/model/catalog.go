package model

import "github.com/shopspring/decimal"

// CatalogItem is the metadata the catalog service returns for an item.
type CatalogItem struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Images []string `json:"images,omitempty"`
}

// Cover returns the first image of the item, if any.
func (c CatalogItem) Cover() string {
	if len(c.Images) == 0 {
		return ""
	}
	return c.Images[0]
}

// Price is a region-scoped price. Discount is a whole percentage.
type Price struct {
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	Discount      int             `json:"discount"`
	CurrencyCode  string          `json:"currencyCode"`
}

// Offer binds a price to the item it belongs to.
type Offer struct {
	OfferID string
	Price   Price
}
