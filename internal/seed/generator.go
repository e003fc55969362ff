package seed

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/internal/domain/region"
)

// Price generation ranges, in whole currency units.
const (
	minBasePrice    = 5
	basePriceRange  = 70
	maxDiscountStep = 15 // discounts are multiples of 5 up to 70%
	snapshotHour    = 12
)

// Generate builds a deterministic dataset for cfg.
func Generate(cfg Config) Dataset {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // reproducible fixtures

	now := cfg.Now.UTC()
	ds := Dataset{
		Collection: model.Collection{
			ID:        uuid.NewSHA1(uuid.NameSpaceURL, []byte("weekboard/"+cfg.Slug)).String(),
			Slug:      cfg.Slug,
			Name:      cfg.Name,
			UpdatedAt: now,
		},
		Items:     make([]model.CatalogItem, 0, cfg.Items),
		Histories: make([]model.ItemPositionHistory, 0, cfg.Items),
		Offers:    make(map[string][]model.Offer),
	}

	for i := 0; i < cfg.Items; i++ {
		id := fmt.Sprintf("%s-item-%04d", cfg.Slug, i+1)
		ds.Items = append(ds.Items, model.CatalogItem{
			ID:     id,
			Title:  fmt.Sprintf("%s #%d", cfg.Name, i+1),
			Images: []string{fmt.Sprintf("https://img.example.com/%s.png", id)},
		})
		ds.Histories = append(ds.Histories, model.ItemPositionHistory{ItemID: id})
	}

	generatePositions(rng, cfg, now, ds.Histories)

	for _, reg := range region.All() {
		offers := make([]model.Offer, 0, len(ds.Items))
		for _, it := range ds.Items {
			offers = append(offers, model.Offer{OfferID: it.ID, Price: randomPrice(rng, reg.Currency)})
		}
		ds.Offers[reg.Code] = offers
	}
	return ds
}

// generatePositions assigns every item one snapshot per day, ranked by a
// daily shuffle. Some days are skipped and some snapshots are unranked.
func generatePositions(rng *rand.Rand, cfg Config, now time.Time, histories []model.ItemPositionHistory) {
	days := cfg.Weeks * 7
	start := time.Date(now.Year(), now.Month(), now.Day(), snapshotHour, 0, 0, 0, time.UTC).AddDate(0, 0, -days+1)
	order := make([]int, len(histories))
	for i := range order {
		order[i] = i
	}

	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for pos, idx := range order {
			if rng.Float64() < cfg.GapRate {
				continue
			}
			position := pos + 1
			if rng.Float64() < cfg.ZeroRate {
				position = 0
			}
			histories[idx].Positions = append(histories[idx].Positions, model.Snapshot{Date: date, Position: position})
		}
	}
}

func randomPrice(rng *rand.Rand, currency string) model.Price {
	cents := int64(minBasePrice*100 + rng.IntN(basePriceRange*100))
	original := decimal.New(cents, -2)
	discount := rng.IntN(maxDiscountStep) * 5
	discounted := original.Mul(decimal.NewFromInt(int64(100 - discount))).Div(decimal.NewFromInt(100)).Round(2)
	return model.Price{
		OriginalPrice: original,
		DiscountPrice: discounted,
		Discount:      discount,
		CurrencyCode:  currency,
	}
}
