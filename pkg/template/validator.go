// validator.go - Check call inputs against a template.
package template

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xob0t/PixelTyper/pkg/apperr"
)

// ValidateName checks that name can key a template file.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return apperr.Validation("template name is required")
	case name == "." || name == "..", strings.ContainsAny(name, `/\`), filepath.Base(name) != name:
		return apperr.Validation("template name %q must not contain path separators", name)
	}
	return nil
}

// ValidateUpdate checks the fields of a font update.
func ValidateUpdate(point string, f FontFields) error {
	if f.FontSize != nil && *f.FontSize <= 0 {
		return apperr.Validation("font size for %q must be positive, got %d", point, *f.FontSize)
	}
	return nil
}

// Describe returns a short human-readable listing of a template.
func Describe(name string, pts Points) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Template: %s (%d points)\n", name, pts.Len())
	for n, p := range pts.All() {
		s := ResolveStyle(p, FontFields{}, DefaultStyle())
		fmt.Fprintf(&b, "  %-16s (%d, %d)  size=%d color=%s font=%s opacity=%d\n",
			n, p.X, p.Y, s.Size, s.Color, s.Font, s.Opacity)
	}
	return b.String()
}
