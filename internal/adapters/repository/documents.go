package repository

import (
	"fmt"
	"sort"
	"time"

	"github.com/okian/weekboard/internal/domain/model"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type collectionDoc struct {
	ID        string    `bson:"_id"`
	Slug      string    `bson:"slug"`
	Name      string    `bson:"name"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d collectionDoc) model() model.Collection {
	return model.Collection{ID: d.ID, Slug: d.Slug, Name: d.Name, UpdatedAt: d.UpdatedAt.UTC()}
}

// snapshotDoc mirrors stored snapshots; either field may be absent in legacy data.
type snapshotDoc struct {
	Date     *time.Time `bson:"date,omitempty"`
	Position *int       `bson:"position,omitempty"`
}

type positionsDoc struct {
	CollectionID string        `bson:"collection_id"`
	ItemID       string        `bson:"item_id"`
	Positions    []snapshotDoc `bson:"positions"`
}

// history converts the stored record, dropping snapshots without a date or
// position and ordering the rest by date. The second result counts dropped snapshots.
func (d positionsDoc) history() (model.ItemPositionHistory, int) {
	out := model.ItemPositionHistory{ItemID: d.ItemID, Positions: make([]model.Snapshot, 0, len(d.Positions))}
	dropped := 0
	for _, s := range d.Positions {
		if s.Date == nil || s.Position == nil {
			dropped++
			continue
		}
		out.Positions = append(out.Positions, model.Snapshot{Date: s.Date.UTC(), Position: *s.Position})
	}
	sort.SliceStable(out.Positions, func(i, j int) bool {
		return out.Positions[i].Date.Before(out.Positions[j].Date)
	})
	return out, dropped
}

func newPositionsDoc(collectionID string, h model.ItemPositionHistory) positionsDoc {
	snaps := make([]snapshotDoc, 0, len(h.Positions))
	for _, s := range h.Positions {
		date := s.Date.UTC()
		pos := s.Position
		snaps = append(snaps, snapshotDoc{Date: &date, Position: &pos})
	}
	return positionsDoc{CollectionID: collectionID, ItemID: h.ItemID, Positions: snaps}
}

type catalogDoc struct {
	ID     string   `bson:"_id"`
	Title  string   `bson:"title"`
	Images []string `bson:"images,omitempty"`
}

// priceDoc keeps monetary fields raw; producers have written them as
// Decimal128, strings and doubles.
type priceDoc struct {
	ItemID        string        `bson:"item_id"`
	Region        string        `bson:"region"`
	OriginalPrice bson.RawValue `bson:"original_price"`
	DiscountPrice bson.RawValue `bson:"discount_price"`
	Discount      int           `bson:"discount"`
	Currency      string        `bson:"currency"`
}

func (d priceDoc) offer() (model.Offer, error) {
	orig, err := toDecimal(d.OriginalPrice)
	if err != nil {
		return model.Offer{}, fmt.Errorf("original_price: %w", err)
	}
	disc, err := toDecimal(d.DiscountPrice)
	if err != nil {
		return model.Offer{}, fmt.Errorf("discount_price: %w", err)
	}
	return model.Offer{
		OfferID: d.ItemID,
		Price: model.Price{
			OriginalPrice: orig,
			DiscountPrice: disc,
			Discount:      d.Discount,
			CurrencyCode:  d.Currency,
		},
	}, nil
}

// priceWriteDoc is the canonical stored form of a price.
type priceWriteDoc struct {
	ItemID        string               `bson:"item_id"`
	Region        string               `bson:"region"`
	OriginalPrice primitive.Decimal128 `bson:"original_price"`
	DiscountPrice primitive.Decimal128 `bson:"discount_price"`
	Discount      int                  `bson:"discount"`
	Currency      string               `bson:"currency"`
}

func newPriceWriteDoc(region string, o model.Offer) (priceWriteDoc, error) {
	orig, err := toDecimal128(o.Price.OriginalPrice)
	if err != nil {
		return priceWriteDoc{}, err
	}
	disc, err := toDecimal128(o.Price.DiscountPrice)
	if err != nil {
		return priceWriteDoc{}, err
	}
	return priceWriteDoc{
		ItemID:        o.OfferID,
		Region:        region,
		OriginalPrice: orig,
		DiscountPrice: disc,
		Discount:      o.Price.Discount,
		Currency:      o.Price.CurrencyCode,
	}, nil
}

type artifactDoc struct {
	Hash            string    `bson:"_id"`
	ExternalImageID string    `bson:"external_image_id"`
	URL             string    `bson:"url"`
	CreatedAt       time.Time `bson:"created_at"`
}

func (d artifactDoc) model() model.RenderArtifact {
	return model.RenderArtifact{
		Hash:            d.Hash,
		ExternalImageID: d.ExternalImageID,
		URL:             d.URL,
		CreatedAt:       d.CreatedAt.UTC(),
	}
}

func toDecimal(v bson.RawValue) (decimal.Decimal, error) {
	switch v.Type {
	case bsontype.Decimal128:
		d, ok := v.Decimal128OK()
		if !ok {
			return decimal.Decimal{}, errMalformedDecimal
		}
		return decimal.NewFromString(d.String())
	case bsontype.String:
		s, _ := v.StringValueOK()
		return decimal.NewFromString(s)
	case bsontype.Double:
		f, _ := v.DoubleOK()
		return decimal.NewFromFloat(f), nil
	case bsontype.Int32:
		i, _ := v.Int32OK()
		return decimal.NewFromInt32(i), nil
	case bsontype.Int64:
		i, _ := v.Int64OK()
		return decimal.NewFromInt(i), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: bson type %s", errMalformedDecimal, v.Type)
	}
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	return primitive.ParseDecimal128(d.String())
}
