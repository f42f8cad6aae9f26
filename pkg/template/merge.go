// merge.go - Merge call-time overrides and defaults onto template points.
package template

// ResolveStyle computes the effective style of one point. Each field is taken
// from the first source that sets it: the override, then the template's stored
// value, then defaults. The merge is per field, so a point can take its size
// from the override and its colour from the template.
func ResolveStyle(p Point, override FontFields, defaults Style) Style {
	s := defaults
	if p.FontSize != nil {
		s.Size = *p.FontSize
	}
	if p.FontColor != nil {
		s.Color = *p.FontColor
	}
	if p.FontStyle != nil {
		s.Font = *p.FontStyle
	}
	if p.Opacity != nil {
		s.Opacity = *p.Opacity
	}

	if override.FontSize != nil {
		s.Size = *override.FontSize
	}
	if override.FontColor != nil {
		s.Color = *override.FontColor
	}
	if override.FontStyle != nil {
		s.Font = *override.FontStyle
	}
	if override.Opacity != nil {
		s.Opacity = *override.Opacity
	}
	return s
}

// mergeFonts overlays a partial update onto a stored point. X and Y are
// never changed.
func mergeFonts(p Point, update FontFields) Point {
	p.apply(update)
	return p
}
