// Package template provides coordinate templates: named sets of labeled
// points with per-point font styling, their JSON storage, and the rules for
// merging template values with call-time overrides and defaults.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// ── Defaults ──

// Defaults applied to freshly captured points and to calls that do not
// specify a style.
const (
	DefaultFontSize  = 20
	DefaultFontColor = "black"
	DefaultFontStyle = "default"
	DefaultOpacity   = 100
)

// ── Point types ──

// FontFields is the optional font styling of a point. A nil field is unset.
// The same type carries stored point styling, call-scoped overrides, and
// partial updates.
type FontFields struct {
	FontSize  *int    `json:"font_size,omitempty"`
	FontColor *string `json:"font_color,omitempty"`
	FontStyle *string `json:"font_style,omitempty"` // font name for the resolver
	Opacity   *int    `json:"opacity,omitempty"`    // percent, 0–100
}

// WithSize returns a copy of f with FontSize set.
func (f FontFields) WithSize(size int) FontFields {
	f.FontSize = &size
	return f
}

// WithColor returns a copy of f with FontColor set.
func (f FontFields) WithColor(color string) FontFields {
	f.FontColor = &color
	return f
}

// WithStyle returns a copy of f with FontStyle set.
func (f FontFields) WithStyle(style string) FontFields {
	f.FontStyle = &style
	return f
}

// WithOpacity returns a copy of f with Opacity set.
func (f FontFields) WithOpacity(opacity int) FontFields {
	f.Opacity = &opacity
	return f
}

// IsZero reports whether no field is set.
func (f FontFields) IsZero() bool {
	return f.FontSize == nil && f.FontColor == nil && f.FontStyle == nil && f.Opacity == nil
}

// apply copies every set field of over onto f.
func (f *FontFields) apply(over FontFields) {
	if over.FontSize != nil {
		f.FontSize = ptr(*over.FontSize)
	}
	if over.FontColor != nil {
		f.FontColor = ptr(*over.FontColor)
	}
	if over.FontStyle != nil {
		f.FontStyle = ptr(*over.FontStyle)
	}
	if over.Opacity != nil {
		f.Opacity = ptr(*over.Opacity)
	}
}

func ptr[T any](v T) *T { return &v }

// Point is one labeled position. X and Y are always in the original image's
// pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
	FontFields
}

// NewPoint returns a point at (x, y) with every font field at its default.
func NewPoint(x, y int) Point {
	return Point{
		X: x,
		Y: y,
		FontFields: FontFields{}.
			WithSize(DefaultFontSize).
			WithColor(DefaultFontColor).
			WithStyle(DefaultFontStyle).
			WithOpacity(DefaultOpacity),
	}
}

// ── Points ──

// Points is an ordered mapping of point name to Point. Setting an existing
// name replaces the record and keeps its position. The zero value is empty
// and ready to use.
type Points struct {
	names  []string
	byName map[string]Point
}

// Set stores p under name.
func (ps *Points) Set(name string, p Point) {
	if ps.byName == nil {
		ps.byName = make(map[string]Point)
	}
	if _, ok := ps.byName[name]; !ok {
		ps.names = append(ps.names, name)
	}
	ps.byName[name] = p
}

// Get returns the point stored under name.
func (ps Points) Get(name string) (Point, bool) {
	p, ok := ps.byName[name]
	return p, ok
}

// Has reports whether name is present.
func (ps Points) Has(name string) bool {
	_, ok := ps.byName[name]
	return ok
}

// Len returns the number of points.
func (ps Points) Len() int { return len(ps.names) }

// Names returns the point names in insertion order.
func (ps Points) Names() []string { return slices.Clone(ps.names) }

// All iterates points in insertion order.
func (ps Points) All() iter.Seq2[string, Point] {
	return func(yield func(string, Point) bool) {
		for _, n := range ps.names {
			if !yield(n, ps.byName[n]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (ps Points) Clone() Points {
	var out Points
	for n, p := range ps.All() {
		cp := Point{X: p.X, Y: p.Y}
		cp.apply(p.FontFields)
		out.Set(n, cp)
	}
	return out
}

// MarshalJSON writes one object whose keys are the point names in order.
func (ps Points) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range ps.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(ps.byName[n])
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", n, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a point object, keeping key order.
func (ps *Points) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("template must be a JSON object of points")
	}

	var out Points
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var p Point
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("point %q: %w", name, err)
		}
		out.Set(name, p)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*ps = out
	return nil
}

// ── Text mapping ──

// TextEntry is the text to draw at one point.
type TextEntry struct {
	Point string `json:"point"`
	Text  string `json:"text"`
}

// TextMapping is an ordered list of texts to draw. The order is the drawing
// order: later entries paint over earlier ones where they overlap.
type TextMapping []TextEntry

// Set stores text for point, replacing an existing entry in place.
func (m *TextMapping) Set(point, text string) {
	for i := range *m {
		if (*m)[i].Point == point {
			(*m)[i].Text = text
			return
		}
	}
	*m = append(*m, TextEntry{Point: point, Text: text})
}

// UnmarshalJSON accepts either an object of point → text, whose key order
// becomes the drawing order, or an array of {"point", "text"} entries.
func (m *TextMapping) UnmarshalJSON(data []byte) error {
	if d := bytes.TrimSpace(data); len(d) > 0 && d[0] == '[' {
		var entries []TextEntry
		if err := json.Unmarshal(d, &entries); err != nil {
			return err
		}
		*m = TextMapping(entries).Normalize()
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("text mapping must be an object or an array")
	}
	var out TextMapping
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("text for %v: %w", tok, err)
		}
		out.Set(tok.(string), text)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*m = out
	return nil
}

// Normalize returns m with duplicate points collapsed as Set would.
func (m TextMapping) Normalize() TextMapping {
	var out TextMapping
	for _, e := range m {
		out.Set(e.Point, e.Text)
	}
	return out
}

// ── Resolved style ──

// Style is a fully resolved font style, ready for rendering.
type Style struct {
	Size    int
	Color   string
	Font    string
	Opacity int
}

// DefaultStyle is the style used when a call does not supply its own.
func DefaultStyle() Style {
	return Style{
		Size:    DefaultFontSize,
		Color:   DefaultFontColor,
		Font:    DefaultFontStyle,
		Opacity: DefaultOpacity,
	}
}
