// Package anchor maps highlight positions between PDF-page space and the
// screen space of a rendered page.
//
// Page space is the unscaled page (ReferenceScale) with its origin at the
// top-left corner. Screen space is the same page rendered at Viewport.Scale.
// Both mappings are uniform scalings anchored at the top-left corner, so a
// position re-anchors correctly after any zoom change.
package anchor

import (
	"fmt"
	"math"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/geometry"
	"github.com/al0nec0der/MarkPDF/internal/highlight"
)

// ReferenceScale is the scale at which stored positions are expressed.
const ReferenceScale = 1.0

// Viewport describes one rendered page: its size in screen units and the
// scale it was rendered at.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Scale  float64 `json:"scale"`
}

// Validate fails with common.ErrViewportUnavailable unless every dimension
// is finite and positive.
func (v Viewport) Validate() error {
	for _, f := range [...]float64{v.Width, v.Height, v.Scale} {
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return fmt.Errorf("%w: %+v", common.ErrViewportUnavailable, v)
		}
	}
	return nil
}

func (v Viewport) factor() float64 {
	return v.Scale / ReferenceScale
}

// ScreenRect is an overlay box in page-relative screen units.
type ScreenRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToScreen returns the overlay boxes for p: one per line rect, or the
// bounding rectangle alone when p has no line rects.
func ToScreen(p highlight.Position, v Viewport) ([]ScreenRect, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	rects := p.Rects
	if len(rects) == 0 {
		rects = []geometry.Rect{p.BoundingRect}
	}

	f := v.factor()
	out := make([]ScreenRect, 0, len(rects))
	for _, r := range rects {
		r, _ = geometry.Sanitize(r)
		s := r.Scale(f)
		out = append(out, ScreenRect{Left: s.X1, Top: s.Y1, Width: s.Width, Height: s.Height})
	}
	return out, nil
}

// FromSelection converts raw selection boxes, as reported by the renderer
// at viewport v, into a page-space position on page. A single box becomes
// the bounding rectangle with no line rects; several boxes are kept as line
// rects and their union becomes the bounding rectangle. Boxes reaching
// past the top or left page edge are clipped to it; boxes left with no area
// are dropped, and ErrEmptySelection is returned when none remain.
func FromSelection(raw []ScreenRect, v Viewport, page int) (highlight.Position, error) {
	if err := v.Validate(); err != nil {
		return highlight.Position{}, err
	}
	if len(raw) == 0 {
		return highlight.Position{}, common.ErrEmptySelection
	}
	if page < 1 {
		return highlight.Position{}, fmt.Errorf("%w: page %d", common.ErrMissingPageNumber, page)
	}

	inv := 1 / v.factor()
	rects := make([]geometry.Rect, 0, len(raw))
	for _, s := range raw {
		s = clip(s)
		r := geometry.Rect{
			X1:     s.Left,
			Y1:     s.Top,
			X2:     s.Left + s.Width,
			Y2:     s.Top + s.Height,
			Width:  s.Width,
			Height: s.Height,
		}.Scale(inv)
		if r.Width <= 0 || r.Height <= 0 || !r.Valid() {
			continue
		}
		rects = append(rects, r)
	}
	if len(rects) == 0 {
		return highlight.Position{}, fmt.Errorf("%w: no box lies on the page", common.ErrEmptySelection)
	}

	pos := highlight.Position{
		BoundingRect: geometry.UnionRects(rects),
		Rects:        rects,
		PageNumber:   page,
	}
	if len(rects) == 1 {
		pos.BoundingRect = rects[0]
		pos.Rects = []geometry.Rect{}
	}
	return pos, nil
}

func clip(s ScreenRect) ScreenRect {
	if s.Left < 0 {
		s.Width += s.Left
		s.Left = 0
	}
	if s.Top < 0 {
		s.Height += s.Top
		s.Top = 0
	}
	return s
}

// Rescale re-anchors overlay boxes drawn at viewport from onto viewport to.
func Rescale(rects []ScreenRect, from, to Viewport) ([]ScreenRect, error) {
	if err := from.Validate(); err != nil {
		return nil, err
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}
	f := to.Scale / from.Scale
	out := make([]ScreenRect, len(rects))
	for i, r := range rects {
		out[i] = ScreenRect{Left: r.Left * f, Top: r.Top * f, Width: r.Width * f, Height: r.Height * f}
	}
	return out, nil
}
