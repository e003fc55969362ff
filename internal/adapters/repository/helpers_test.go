package repository

import (
	"time"

	"github.com/okian/weekboard/internal/domain/model"
	"github.com/shopspring/decimal"
)

func historyOf(id string, date time.Time, pos int) model.ItemPositionHistory {
	return model.ItemPositionHistory{ItemID: id, Positions: []model.Snapshot{{Date: date, Position: pos}}}
}

func offerOf(id, original, discounted string, pct int) model.Offer {
	return model.Offer{
		OfferID: id,
		Price: model.Price{
			OriginalPrice: decimal.RequireFromString(original),
			DiscountPrice: decimal.RequireFromString(discounted),
			Discount:      pct,
			CurrencyCode:  "EUR",
		},
	}
}
