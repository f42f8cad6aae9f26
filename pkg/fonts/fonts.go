// fonts.go - Font loading with caching and a built-in fallback face.
// Uses golang.org/x/image/font/opentype for TTF/OTF/TTC files and
// basicfont.Face7x13 when nothing scalable can be found.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// DefaultName selects the built-in fallback font.
const DefaultName = "default"

// DPI at which faces are created, so a size in points equals pixels.
const DPI = 72

// Extensions are the font file extensions probed in font directories.
var Extensions = []string{".ttf", ".otf", ".ttc"}

// Fallback returns the built-in minimal font. It is not scalable.
func Fallback() font.Face {
	return basicfont.Face7x13
}

// IsFallback reports whether face is the built-in fallback.
func IsFallback(face font.Face) bool {
	return face == font.Face(basicfont.Face7x13)
}

// loader parses font files once and creates faces per size.
type loader struct {
	mu     sync.Mutex
	parsed map[string]*opentype.Font
}

func newLoader() *loader {
	return &loader{parsed: make(map[string]*opentype.Font)}
}

// face loads path and returns a face at size.
func (l *loader) face(path string, size int) (font.Face, error) {
	f, err := l.font(path)
	if err != nil {
		return nil, err
	}
	return newFace(f, size)
}

func (l *loader) font(path string) (*opentype.Font, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f, ok := l.parsed[path]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}

	f, err := parse(data, strings.EqualFold(filepath.Ext(path), ".ttc"))
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	l.parsed[path] = f
	return f, nil
}

func (l *loader) forget(path string) {
	l.mu.Lock()
	delete(l.parsed, path)
	l.mu.Unlock()
}

// parse reads a single font, or the first font of a collection.
func parse(data []byte, collection bool) (*opentype.Font, error) {
	if !collection {
		return opentype.Parse(data)
	}
	c, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	if c.NumFonts() == 0 {
		return nil, fmt.Errorf("empty font collection")
	}
	return c.Font(0)
}

func newFace(f *opentype.Font, size int) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     DPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// regularFile reports whether path names an existing non-directory.
func regularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
