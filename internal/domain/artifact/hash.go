package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	json "github.com/goccy/go-json"
)

// hashRow is the per-row content that identifies an image. Field order is
// fixed by the struct, so the encoding is canonical.
type hashRow struct {
	ItemID          string `json:"itemId"`
	Title           string `json:"title"`
	Position        int    `json:"position"`
	DiscountPrice   string `json:"discountPrice"`
	OriginalPrice   string `json:"originalPrice"`
	DiscountPercent int    `json:"discountPercent"`
}

type hashDoc struct {
	Title    string    `json:"title"`
	Week     string    `json:"week"`
	Region   string    `json:"region"`
	Currency string    `json:"currency"`
	Rows     []hashRow `json:"rows"`
}

// Hash returns the hex sha256 of everything drawn for l.
// Prices are encoded in their shortest decimal form so equal amounts hash equally.
func Hash(l Layout) (string, error) {
	doc := hashDoc{
		Title:    l.Title,
		Week:     l.Week,
		Region:   l.Region,
		Currency: l.Currency,
		Rows:     make([]hashRow, len(l.Rows)),
	}
	for i, e := range l.Rows {
		doc.Rows[i] = hashRow{
			ItemID:          e.ItemID,
			Title:           e.Title,
			Position:        e.Position,
			DiscountPrice:   e.Price.DiscountPrice.String(),
			OriginalPrice:   e.Price.OriginalPrice.String(),
			DiscountPercent: e.Price.Discount,
		}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("hash artifact: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
