// flags.go - Repeatable flags and point-field assignments.
package main

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/xob0t/PixelTyper/pkg/template"
)

// multiFlag collects every occurrence of a repeated flag.
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ", ") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

// styleFlags are the call defaults shared by overlay and apply.
type styleFlags struct {
	color   string
	size    int
	font    string
	opacity int
}

func (s *styleFlags) register(fs *flag.FlagSet) {
	d := template.DefaultStyle()
	fs.StringVar(&s.color, "color", d.Color, "Text colour")
	fs.IntVar(&s.size, "size", d.Size, "Font size in pixels")
	fs.StringVar(&s.font, "font", d.Font, "Font name")
	fs.IntVar(&s.opacity, "opacity", d.Opacity, "Opacity percent")
}

func (s *styleFlags) style() template.Style {
	return template.Style{Size: s.size, Color: s.color, Font: s.font, Opacity: s.opacity}
}

// parseText splits "point=text".
func parseText(v string) (string, string, error) {
	point, text, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(point) == "" {
		return "", "", fmt.Errorf("text %q: want point=text", v)
	}
	return strings.TrimSpace(point), text, nil
}

// parseFieldAssign parses "point.field=value" into fields, merging with any
// earlier assignment to the same point. Fields are size, color, font and
// opacity, or their stored names font_size, font_color, font_style.
func parseFieldAssign(v string, fields map[string]template.FontFields) error {
	lhs, value, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("assignment %q: want point.field=value", v)
	}
	dot := strings.LastIndex(lhs, ".")
	if dot <= 0 || dot == len(lhs)-1 {
		return fmt.Errorf("assignment %q: want point.field=value", v)
	}
	point, field := lhs[:dot], strings.ToLower(lhs[dot+1:])

	f := fields[point]
	switch field {
	case "size", "font_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("assignment %q: size must be an integer", v)
		}
		f = f.WithSize(n)
	case "color", "colour", "font_color":
		f = f.WithColor(value)
	case "font", "style", "font_style":
		f = f.WithStyle(value)
	case "opacity":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("assignment %q: opacity must be an integer", v)
		}
		f = f.WithOpacity(n)
	default:
		return fmt.Errorf("assignment %q: unknown field %q", v, field)
	}
	fields[point] = f
	return nil
}
