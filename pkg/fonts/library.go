package fonts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/xob0t/PixelTyper/pkg/apperr"
)

// Available lists every font name the resolver can offer: registered names,
// user and bundled directory fonts, system fonts present on disk, then the
// built-in Go fonts. "default" is not listed.
func (r *Resolver) Available() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	registered := make([]string, 0, len(r.opts.Registry))
	for n := range r.opts.Registry {
		registered = append(registered, n)
	}
	sort.Strings(registered)
	for _, n := range registered {
		add(n)
	}

	for _, dir := range []string{r.opts.UserDir, r.opts.BundledDir} {
		for _, n := range dirFonts(dir) {
			add(n)
		}
	}

	system := make([]string, 0, len(r.opts.System))
	for n, paths := range r.opts.System {
		if slices.ContainsFunc(paths, regularFile) {
			system = append(system, n)
		}
	}
	sort.Strings(system)
	for _, n := range system {
		add(SystemPrefix + n)
	}

	for _, n := range BuiltinNames() {
		add(n)
	}
	return names
}

// dirFonts returns the sorted base names of font files in dir.
func dirFonts(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !isFontFile(e.Name()) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

func isFontFile(name string) bool {
	ext := filepath.Ext(name)
	return slices.ContainsFunc(Extensions, func(e string) bool { return strings.EqualFold(e, ext) })
}

// Install copies a font file into dir and returns the name it resolves
// under. Existing files with the same name are replaced.
func Install(dir, filename string, r io.Reader) (string, error) {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) || !isFontFile(base) {
		return "", apperr.Validation("font file %q must be .ttf, .otf or .ttc", filename)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create font dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".install-*")
	if err != nil {
		return "", fmt.Errorf("install font: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("install font: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("install font: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, base)); err != nil {
		return "", fmt.Errorf("install font: %w", err)
	}
	return strings.TrimSuffix(base, filepath.Ext(base)), nil
}
