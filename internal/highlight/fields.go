package highlight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/al0nec0der/MarkPDF/internal/common"
	"github.com/al0nec0der/MarkPDF/internal/geometry"
)

// object is a decoded JSON object with path lookups.
type object map[string]any

func decodeObject(raw []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedBody, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object", common.ErrMalformedBody)
	}
	return object(m), nil
}

// get follows keys through nested objects. A null value counts as absent.
func (o object) get(keys ...string) (any, bool) {
	var cur any = map[string]any(o)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func (o object) object(keys ...string) (object, bool) {
	v, ok := o.get(keys...)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return object(m), ok
}

// source extracts one candidate value for a field.
type source[T any] func(o object) (T, bool)

// firstOf returns the value of the first source that matches.
func firstOf[T any](o object, sources ...source[T]) (T, bool) {
	for _, s := range sources {
		if v, ok := s(o); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func stringAt(keys ...string) source[string] {
	return func(o object) (string, bool) {
		v, ok := o.get(keys...)
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		return s, ok
	}
}

func nonEmptyStringAt(keys ...string) source[string] {
	return func(o object) (string, bool) {
		s, ok := stringAt(keys...)(o)
		return s, ok && s != ""
	}
}

// pageAt matches a positive integral page number.
func pageAt(keys ...string) source[int] {
	return func(o object) (int, bool) {
		v, ok := o.get(keys...)
		if !ok {
			return 0, false
		}
		f, ok := geometry.Number(v)
		if !ok || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	}
}

func rectFrom(v any) (geometry.Rect, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return geometry.Zero, fmt.Errorf("%w: not an object", common.ErrInvalidGeometry)
	}
	return geometry.NewRect(m)
}
