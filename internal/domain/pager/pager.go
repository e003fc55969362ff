// Package pager joins a ranking with catalog metadata and regional prices and
// cuts it into pages.
//
// Rows whose metadata or price cannot be found are dropped from the page but
// still counted in Total, so Total always equals the ranking length.
package pager

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/weekboard/internal/domain/model"
	"github.com/okian/weekboard/pkg/logger"
	"github.com/okian/weekboard/pkg/metrics"
)

const (
	defaultLimit   = 20
	defaultMax     = 50
	defaultTimeout = 2 * time.Second
)

// Sort keys and orders accepted by AssembleSorted.
const (
	SortPosition = "position"
	SortDiscount = "discount"
	OrderAsc     = "asc"
	OrderDesc    = "desc"
)

// CatalogService returns metadata for a batch of items. Unknown ids are omitted.
type CatalogService interface {
	GetByIDs(ctx context.Context, ids []string) ([]model.CatalogItem, error)
}

// PriceService returns the offers of a batch of items in one region.
type PriceService interface {
	GetByIDs(ctx context.Context, ids []string, region string) ([]model.Offer, error)
}

// Request describes the page to build.
type Request struct {
	Page      int
	Limit     int
	Region    string
	Title     string
	UpdatedAt time.Time
	// Window is nil for non-windowed listings.
	Window *model.Window
}

// Assembler builds pages from rankings.
type Assembler struct {
	catalog      CatalogService
	prices       PriceService
	defaultLimit int
	maxLimit     int
	timeout      time.Duration
	logger       logger.Logger
}

// New creates an Assembler over the given lookups.
func New(catalog CatalogService, prices PriceService, opts ...Option) *Assembler {
	a := &Assembler{
		catalog:      catalog,
		prices:       prices,
		defaultLimit: defaultLimit,
		maxLimit:     defaultMax,
		timeout:      defaultTimeout,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.defaultLimit > a.maxLimit {
		a.defaultLimit = a.maxLimit
	}
	return a
}

// Normalize applies the page and limit rules: page < 1 is 1, limit < 1 is the
// default and limit is capped at the maximum.
func (a *Assembler) Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = a.defaultLimit
	}
	if limit > a.maxLimit {
		limit = a.maxLimit
	}
	return page, limit
}

// Slice returns the entries of ranking that fall on the given page.
func Slice(ranking []model.RankedEntry, page, limit int) []model.RankedEntry {
	if page < 1 || limit < 1 || len(ranking) == 0 {
		return nil
	}
	// page-1 is compared before multiplying so huge pages cannot overflow
	if page-1 > (len(ranking)-1)/limit {
		return nil
	}
	skip := (page - 1) * limit
	end := skip + limit
	if end > len(ranking) {
		end = len(ranking)
	}
	return ranking[skip:end]
}

// Assemble builds one page of ranking in ranking order.
func (a *Assembler) Assemble(ctx context.Context, req Request, ranking []model.RankedEntry) (model.Page, error) {
	req.Page, req.Limit = a.Normalize(req.Page, req.Limit)
	rows := Slice(ranking, req.Page, req.Limit)

	items, offers := a.lookup(ctx, ids(rows), req.Region, true)
	if err := ctx.Err(); err != nil {
		return model.Page{}, fmt.Errorf("assemble page: %w", err)
	}
	return a.join(ctx, req, len(ranking), rows, items, offers), nil
}

// AssembleSorted builds one page after reordering the ranking by key and order.
// Sorting by discount needs the prices of the whole ranking, which are fetched
// in a single batch before slicing.
func (a *Assembler) AssembleSorted(ctx context.Context, req Request, ranking []model.RankedEntry, key, order string) (model.Page, error) {
	key, order, err := ParseSort(key, order)
	if err != nil {
		return model.Page{}, err
	}
	if key == SortPosition && order == OrderAsc {
		return a.Assemble(ctx, req, ranking)
	}
	req.Page, req.Limit = a.Normalize(req.Page, req.Limit)

	sorted := make([]model.RankedEntry, len(ranking))
	copy(sorted, ranking)

	var offers map[string]model.Price
	switch key {
	case SortDiscount:
		offers = a.fetchPrices(ctx, ids(sorted), req.Region)
		sortByDiscount(sorted, offers, order == OrderDesc)
	default:
		// position desc is the exact reverse of the ranking order
		reverse(sorted)
	}

	rows := Slice(sorted, req.Page, req.Limit)
	items, pageOffers := a.lookup(ctx, ids(rows), req.Region, offers == nil)
	if offers == nil {
		offers = pageOffers
	}
	if err := ctx.Err(); err != nil {
		return model.Page{}, fmt.Errorf("assemble sorted page: %w", err)
	}
	return a.join(ctx, req, len(ranking), rows, items, offers), nil
}

// ParseSort validates and normalizes sort parameters. Empty values fall back
// to position ascending.
func ParseSort(key, order string) (string, string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	order = strings.ToLower(strings.TrimSpace(order))
	switch key {
	case "":
		key = SortPosition
	case SortPosition, SortDiscount:
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSort, key)
	}
	switch order {
	case "":
		order = OrderAsc
	case OrderAsc, OrderDesc:
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidOrder, order)
	}
	return key, order, nil
}

// lookup fetches metadata and, when withPrices is set, prices concurrently.
// Each lookup runs under the upstream timeout; a failure leaves its map empty.
func (a *Assembler) lookup(ctx context.Context, ids []string, region string, withPrices bool) (map[string]model.CatalogItem, map[string]model.Price) {
	var (
		items  = map[string]model.CatalogItem{}
		offers = map[string]model.Price{}
	)
	if len(ids) == 0 {
		return items, offers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items = a.fetchItems(gctx, ids)
		return nil
	})
	if withPrices {
		g.Go(func() error {
			offers = a.fetchPrices(gctx, ids, region)
			return nil
		})
	}
	_ = g.Wait() // fetches never fail; errors degrade to missing rows
	return items, offers
}

func (a *Assembler) fetchItems(ctx context.Context, ids []string) map[string]model.CatalogItem {
	out := make(map[string]model.CatalogItem, len(ids))
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	got, err := a.catalog.GetByIDs(cctx, ids)
	observe("catalog", start, err)
	if err != nil {
		a.logger.Warn(ctx, "catalog lookup failed", logger.Int("ids", len(ids)), logger.Error(err))
		return out
	}
	for _, it := range got {
		out[it.ID] = it
	}
	return out
}

func (a *Assembler) fetchPrices(ctx context.Context, ids []string, region string) map[string]model.Price {
	out := make(map[string]model.Price, len(ids))
	if len(ids) == 0 {
		return out
	}
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	got, err := a.prices.GetByIDs(cctx, ids, region)
	observe("price", start, err)
	if err != nil {
		a.logger.Warn(ctx, "price lookup failed", logger.Int("ids", len(ids)),
			logger.String("region", region), logger.Error(err))
		return out
	}
	for _, o := range got {
		out[o.OfferID] = o.Price
	}
	return out
}

func observe(store string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RecordUpstreamLatency(store, outcome, float64(time.Since(start).Milliseconds()))
}

// join emits one element per row that has both metadata and a price.
func (a *Assembler) join(ctx context.Context, req Request, total int, rows []model.RankedEntry,
	items map[string]model.CatalogItem, offers map[string]model.Price,
) model.Page {
	elements := make([]model.Element, 0, len(rows))
	var missingMeta, missingPrice []string
	for _, r := range rows {
		it, ok := items[r.ItemID]
		if !ok {
			missingMeta = append(missingMeta, r.ItemID)
			continue
		}
		p, ok := offers[r.ItemID]
		if !ok {
			missingPrice = append(missingPrice, r.ItemID)
			continue
		}
		elements = append(elements, model.Element{
			ItemID:   r.ItemID,
			Title:    it.Title,
			Image:    it.Cover(),
			Position: r.Position,
			Price:    p,
		})
	}

	if len(missingMeta) > 0 || len(missingPrice) > 0 {
		metrics.RecordRowsDropped("metadata", len(missingMeta))
		metrics.RecordRowsDropped("price", len(missingPrice))
		a.logger.Warn(ctx, "partial data missing, rows dropped",
			logger.Strings("missing_metadata", missingMeta),
			logger.Strings("missing_price", missingPrice),
			logger.String("region", req.Region),
			logger.Int("page", req.Page))
	}

	out := model.Page{
		Elements:  elements,
		Page:      req.Page,
		Limit:     req.Limit,
		Total:     total,
		Title:     req.Title,
		UpdatedAt: req.UpdatedAt,
	}
	if req.Window != nil {
		start, end := req.Window.Start, req.Window.End
		out.Start, out.End = &start, &end
	}
	return out
}

func ids(rows []model.RankedEntry) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ItemID
	}
	return out
}

func reverse(entries []model.RankedEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}

// sortByDiscount orders by discount percentage, then position ascending, then
// item id ascending. Items without a price go last.
func sortByDiscount(entries []model.RankedEntry, offers map[string]model.Price, desc bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		pi, iok := offers[entries[i].ItemID]
		pj, jok := offers[entries[j].ItemID]
		if iok != jok {
			return iok
		}
		if iok && pi.Discount != pj.Discount {
			if desc {
				return pi.Discount > pj.Discount
			}
			return pi.Discount < pj.Discount
		}
		if entries[i].Position != entries[j].Position {
			return entries[i].Position < entries[j].Position
		}
		return entries[i].ItemID < entries[j].ItemID
	})
}
