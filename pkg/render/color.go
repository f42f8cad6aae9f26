// color.go - Colour and opacity normalization. Both functions absorb every
// parse failure into a safe default so a bad value never aborts a render.
package render

import (
	"image/color"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// RGB is an opaque colour triple.
type RGB struct {
	R, G, B uint8
}

// Black is the fallback for unparseable colours.
var Black = RGB{}

// Opaque returns c as a fully opaque color.RGBA.
func (c RGB) Opaque() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// WithAlpha returns c as a non-premultiplied colour with alpha a.
func (c RGB) WithAlpha(a uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// NormalizeColor converts a colour specification to RGB. It accepts RGB,
// [3]uint8, [4]uint8, []uint8 or []int of length 3 or 4, any color.Color, or a
// string ("#rgb", "#rgba", "#rrggbb", "#rrggbbaa", "rgb(...)", "rgba(...)" or a
// CSS colour name). Alpha channels are dropped. Anything else yields Black.
func NormalizeColor(c any) RGB {
	switch v := c.(type) {
	case RGB:
		return v
	case [3]uint8:
		return RGB{v[0], v[1], v[2]}
	case [4]uint8:
		return RGB{v[0], v[1], v[2]}
	case []uint8:
		if len(v) == 3 || len(v) == 4 {
			return RGB{v[0], v[1], v[2]}
		}
	case []int:
		if len(v) == 3 || len(v) == 4 {
			if c, ok := fromInts(v[0], v[1], v[2]); ok {
				return c
			}
		}
	case string:
		if c, ok := ParseColor(v); ok {
			return c
		}
	case color.Color:
		n := color.NRGBAModel.Convert(v).(color.NRGBA)
		return RGB{n.R, n.G, n.B}
	}
	return Black
}

// ParseColor parses a colour string, reporting whether it was understood.
func ParseColor(s string) (RGB, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Black, false
	}

	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseFunctional(s)
	}
	if c, ok := colornames.Map[strings.ReplaceAll(s, " ", "")]; ok {
		return RGB{c.R, c.G, c.B}, true
	}
	return Black, false
}

func parseHex(hex string) (RGB, bool) {
	switch len(hex) {
	case 3, 4:
		var ch [3]uint8
		for i := range 3 {
			v, err := strconv.ParseUint(hex[i:i+1], 16, 8)
			if err != nil {
				return Black, false
			}
			ch[i] = uint8(v * 17)
		}
		return RGB{ch[0], ch[1], ch[2]}, true
	case 6, 8:
		var ch [3]uint8
		for i := range 3 {
			v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return Black, false
			}
			ch[i] = uint8(v)
		}
		return RGB{ch[0], ch[1], ch[2]}, true
	}
	return Black, false
}

// parseFunctional handles rgb(r, g, b) and rgba(r, g, b, a) with integer or
// percentage channels.
func parseFunctional(s string) (RGB, bool) {
	open := strings.IndexByte(s, '(')
	if !strings.HasSuffix(s, ")") {
		return Black, false
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return Black, false
	}

	var ch [3]int
	for i := range 3 {
		p := strings.TrimSpace(parts[i])
		if pct, ok := strings.CutSuffix(p, "%"); ok {
			f, err := strconv.ParseFloat(pct, 64)
			if err != nil {
				return Black, false
			}
			ch[i] = int(math.Round(f * 255 / 100))
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Black, false
		}
		ch[i] = n
	}
	return fromInts(ch[0], ch[1], ch[2])
}

func fromInts(r, g, b int) (RGB, bool) {
	for _, v := range []int{r, g, b} {
		if v < 0 || v > 255 {
			return Black, false
		}
	}
	return RGB{uint8(r), uint8(g), uint8(b)}, true
}

// ClampOpacity converts v to an opacity percentage in [0, 100]. Integers and
// floats are truncated, strings are parsed as base-10 integers. Values that
// cannot be parsed are treated as fully opaque.
func ClampOpacity(v any) int {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int8:
		n = int(x)
	case int16:
		n = int(x)
	case int32:
		n = int(x)
	case int64:
		n = clampInt64(x)
	case uint8:
		n = int(x)
	case uint16:
		n = int(x)
	case uint32:
		n = clampInt64(int64(x))
	case uint:
		n = clampInt64(int64(min(uint64(x), math.MaxInt64)))
	case uint64:
		n = clampInt64(int64(min(uint64(x), math.MaxInt64)))
	case float32:
		return ClampOpacity(float64(x))
	case float64:
		if math.IsNaN(x) {
			return 100
		}
		n = clampInt64(int64(math.Max(math.Min(x, math.MaxInt32), math.MinInt32)))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 100
		}
		n = parsed
	default:
		return 100
	}
	return max(0, min(n, 100))
}

func clampInt64(v int64) int {
	return int(max(-1, min(v, 101)))
}

// Alpha returns the 8-bit alpha for an opacity percentage.
func Alpha(opacity int) uint8 {
	opacity = max(0, min(opacity, 100))
	return uint8(math.Round(255 * float64(opacity) / 100))
}
