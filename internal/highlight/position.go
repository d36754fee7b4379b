package highlight

import (
	"fmt"

	"github.com/al0nec0der/MarkPDF/internal/geometry"
)

// decodePosition applies the position fallback chain to a payload:
// boundingRect and rects when present, the union of rects when only they
// are present, and a zero rectangle when only a page number is known.
// Invalid rectangles degrade to geometry.Zero. ok is false when nothing
// positional exists at all.
func decodePosition(o object, pageKnown bool) (pos Position, notes []Degradation, ok bool) {
	pos.Rects = []geometry.Rect{}
	p, _ := o.object("position")

	rawRects, hasRects := p.get("rects")
	list, isList := rawRects.([]any)
	hasRects = hasRects && isList

	valid := make([]geometry.Rect, 0, len(list))
	for i, item := range list {
		r, err := rectFrom(item)
		if err != nil {
			notes = append(notes, Degradation{Field: fmt.Sprintf("position.rects[%d]", i), Reason: err.Error()})
		} else {
			valid = append(valid, r)
		}
		pos.Rects = append(pos.Rects, r)
	}

	rawBounding, hasBounding := p.get("boundingRect")
	switch {
	case hasBounding:
		r, err := rectFrom(rawBounding)
		if err != nil {
			notes = append(notes, Degradation{Field: "position.boundingRect", Reason: err.Error()})
		}
		pos.BoundingRect = r
	case hasRects:
		pos.BoundingRect = geometry.UnionRects(valid)
	case pageKnown:
		pos.BoundingRect = geometry.Zero
	default:
		return Position{}, nil, false
	}

	return pos, notes, true
}

// Sanitize returns p with every invalid rectangle replaced by the zero
// rectangle, together with a note for each replacement. Rects is never nil
// in the result.
func Sanitize(p Position) (Position, []Degradation) {
	var notes []Degradation
	out := p.clone()
	if r, ok := geometry.Sanitize(out.BoundingRect); !ok {
		out.BoundingRect = r
		notes = append(notes, Degradation{Field: "position.boundingRect", Reason: "invalid geometry"})
	}
	for i, r := range out.Rects {
		if s, ok := geometry.Sanitize(r); !ok {
			out.Rects[i] = s
			notes = append(notes, Degradation{Field: fmt.Sprintf("position.rects[%d]", i), Reason: "invalid geometry"})
		}
	}
	return out, notes
}

// DecodeStoredPosition reads a position persisted in any historical shape.
// pageNumber comes from the record itself and overrides whatever the
// stored JSON says.
func DecodeStoredPosition(raw []byte, pageNumber int) (Position, []Degradation) {
	o, err := decodeObject(wrapPosition(raw))
	if err != nil {
		return Position{BoundingRect: geometry.Zero, Rects: []geometry.Rect{}, PageNumber: pageNumber},
			[]Degradation{{Field: "position", Reason: err.Error()}}
	}
	pos, notes, ok := decodePosition(o, true)
	if !ok {
		pos = Position{BoundingRect: geometry.Zero, Rects: []geometry.Rect{}}
	}
	pos.PageNumber = pageNumber
	return pos, notes
}

func wrapPosition(raw []byte) []byte {
	if len(raw) == 0 {
		raw = []byte("null")
	}
	out := make([]byte, 0, len(raw)+14)
	out = append(out, `{"position":`...)
	out = append(out, raw...)
	return append(out, '}')
}
