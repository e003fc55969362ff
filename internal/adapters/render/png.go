// Package render draws leaderboard layouts as PNG images.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fogleman/gg"
	"github.com/okian/weekboard/internal/domain/artifact"
	"github.com/okian/weekboard/internal/domain/model"
	"golang.org/x/image/font/basicfont"
)

const (
	defaultWidth     = 1080
	defaultRowHeight = 72
	headerRows       = 2
	padding          = 32
	maxTitleRunes    = 48
)

// Renderer is a fogleman/gg PNG renderer. It is safe for concurrent use;
// every call draws on its own context.
type Renderer struct {
	width     int
	rowHeight int
	fontPath  string
}

// New returns a Renderer. A configured font is loaded once to fail fast.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{width: defaultWidth, rowHeight: defaultRowHeight}
	for _, opt := range opts {
		opt(r)
	}
	if r.fontPath != "" {
		if _, err := gg.LoadFontFace(r.fontPath, r.fontSize()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFontLoad, r.fontPath, err)
		}
	}
	return r, nil
}

// Size returns the pixel dimensions of a layout with n rows.
func (r *Renderer) Size(n int) (int, int) {
	return r.width, (headerRows + n) * r.rowHeight
}

// Render draws layout and returns the encoded PNG.
func (r *Renderer) Render(ctx context.Context, layout artifact.Layout) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := r.Size(len(layout.Rows))
	dc := gg.NewContext(w, h)
	if err := r.setFont(dc); err != nil {
		return nil, err
	}

	dc.SetRGB(0.08, 0.09, 0.12)
	dc.Clear()

	r.drawHeader(dc, layout)
	for i, row := range layout.Rows {
		r.drawRow(dc, i, row, layout.Currency)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) fontSize() float64 {
	return float64(r.rowHeight) * 0.4
}

func (r *Renderer) setFont(dc *gg.Context) error {
	if r.fontPath == "" {
		dc.SetFontFace(basicfont.Face7x13)
		return nil
	}
	if err := dc.LoadFontFace(r.fontPath, r.fontSize()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrFontLoad, r.fontPath, err)
	}
	return nil
}

func (r *Renderer) drawHeader(dc *gg.Context, layout artifact.Layout) {
	rh := float64(r.rowHeight)
	dc.SetRGB(0.16, 0.18, 0.25)
	dc.DrawRectangle(0, 0, float64(r.width), rh*headerRows)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(truncate(layout.Title, maxTitleRunes), padding, rh*0.8, 0, 0.5)
	dc.SetRGB(0.7, 0.74, 0.82)
	dc.DrawStringAnchored(fmt.Sprintf("Week %s  ·  %s", layout.Week, layout.Region), padding, rh*1.4, 0, 0.5)
}

func (r *Renderer) drawRow(dc *gg.Context, i int, row model.Element, currency string) {
	rh := float64(r.rowHeight)
	top := rh * float64(headerRows+i)
	mid := top + rh/2

	if i%2 == 1 {
		dc.SetRGB(0.11, 0.12, 0.16)
		dc.DrawRectangle(0, top, float64(r.width), rh)
		dc.Fill()
	}

	dc.SetRGB(0.98, 0.8, 0.3)
	dc.DrawStringAnchored(fmt.Sprintf("#%d", row.Position), padding, mid, 0, 0.5)

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(truncate(row.Title, maxTitleRunes), padding+rh*1.5, mid, 0, 0.5)

	dc.DrawStringAnchored(priceLabel(row.Price, currency), float64(r.width)-padding, mid, 1, 0.5)
}

func priceLabel(p model.Price, currency string) string {
	if p.CurrencyCode != "" {
		currency = p.CurrencyCode
	}
	label := p.DiscountPrice.StringFixed(2) + " " + currency
	if p.Discount > 0 {
		label = fmt.Sprintf("-%d%%  %s (was %s)", p.Discount, label, p.OriginalPrice.StringFixed(2))
	}
	return label
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

var _ artifact.Renderer = (*Renderer)(nil)
