// Package geometry defines the rectangle model used for highlight positions.
//
// Coordinates live in PDF-page space at the reference scale: the origin is
// the top-left corner of the page, x grows to the right and y grows down.
// Every field of a valid Rect is finite and non-negative.
package geometry

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/al0nec0der/MarkPDF/internal/common"
)

// Epsilon is the tolerance used by Equal. It absorbs the drift introduced
// by re-serializing floats through JSON and the database.
const Epsilon = 1e-6

// Rect is an axis-aligned rectangle. Width and Height are stored alongside
// the corners because historical records carry them explicitly.
type Rect struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Zero is the degenerate rectangle substituted for invalid geometry.
var Zero = Rect{}

// NewRect builds a Rect from loosely typed fields, as found in decoded JSON.
// x1, y1, x2 and y2 are required; width and height default to x2-x1 and
// y2-y1. The result is checked with Valid.
func NewRect(fields map[string]any) (Rect, error) {
	var r Rect
	required := []struct {
		key string
		dst *float64
	}{
		{"x1", &r.X1}, {"y1", &r.Y1}, {"x2", &r.X2}, {"y2", &r.Y2},
	}
	for _, f := range required {
		raw, ok := fields[f.key]
		if !ok {
			return Zero, fmt.Errorf("%w: %s is missing", common.ErrInvalidGeometry, f.key)
		}
		v, ok := Number(raw)
		if !ok {
			return Zero, fmt.Errorf("%w: %s is not a number", common.ErrInvalidGeometry, f.key)
		}
		*f.dst = v
	}

	r.Width = r.X2 - r.X1
	r.Height = r.Y2 - r.Y1
	optional := []struct {
		key string
		dst *float64
	}{
		{"width", &r.Width}, {"height", &r.Height},
	}
	for _, f := range optional {
		raw, ok := fields[f.key]
		if !ok || raw == nil {
			continue
		}
		v, ok := Number(raw)
		if !ok {
			return Zero, fmt.Errorf("%w: %s is not a number", common.ErrInvalidGeometry, f.key)
		}
		*f.dst = v
	}

	if !r.Valid() {
		return Zero, fmt.Errorf("%w: %+v", common.ErrInvalidGeometry, r)
	}
	return r, nil
}

// Number converts a numeric-like value to float64. Numeric strings are
// accepted because some clients serialized coordinates as text.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Valid reports whether every field is finite and non-negative.
func (r Rect) Valid() bool {
	for _, v := range [...]float64{r.X1, r.Y1, r.X2, r.Y2, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

// IsZero reports whether r is the zero rectangle.
func (r Rect) IsZero() bool {
	return r == Zero
}

// Sanitize returns r unchanged when it is valid, and Zero with ok=false
// otherwise.
func Sanitize(r Rect) (rect Rect, ok bool) {
	if !r.Valid() {
		return Zero, false
	}
	return r, true
}

// Equal reports whether all six fields of a and b agree within Epsilon.
func Equal(a, b Rect) bool {
	return near(a.X1, b.X1) && near(a.Y1, b.Y1) &&
		near(a.X2, b.X2) && near(a.Y2, b.Y2) &&
		near(a.Width, b.Width) && near(a.Height, b.Height)
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// UnionRects returns the smallest rectangle containing the corners of every
// rect. The union of no rectangles is Zero.
func UnionRects(rects []Rect) Rect {
	if len(rects) == 0 {
		return Zero
	}
	u := rects[0]
	for _, r := range rects[1:] {
		u.X1 = math.Min(u.X1, r.X1)
		u.Y1 = math.Min(u.Y1, r.Y1)
		u.X2 = math.Max(u.X2, r.X2)
		u.Y2 = math.Max(u.Y2, r.Y2)
	}
	u.Width = u.X2 - u.X1
	u.Height = u.Y2 - u.Y1
	return u
}

// Scale multiplies every field by f. Scaling is anchored at the page's
// top-left corner, so the origin stays fixed.
func (r Rect) Scale(f float64) Rect {
	return Rect{
		X1:     r.X1 * f,
		Y1:     r.Y1 * f,
		X2:     r.X2 * f,
		Y2:     r.Y2 * f,
		Width:  r.Width * f,
		Height: r.Height * f,
	}
}
