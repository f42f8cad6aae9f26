package fonts

import (
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"

	"github.com/xob0t/PixelTyper/pkg/apperr"
	"github.com/xob0t/PixelTyper/pkg/config"
)

// Strategy is one font source. TryResolve returns false when the source does
// not have the font or cannot load it; it never fails.
type Strategy interface {
	TryResolve(name string, size int) (font.Face, bool)
}

// Options configures a Resolver.
type Options struct {
	Registry   map[string][]string // registered name -> candidate files
	UserDir    string
	BundledDir string
	System     map[string][]string // system font name -> candidate files; nil = current OS table
	Log        logrus.FieldLogger
}

// Resolver turns a font name and size into a drawable face, trying each
// source in priority order and falling back to the built-in font.
type Resolver struct {
	strategies []Strategy
	loader     *loader
	opts       Options
	log        logrus.FieldLogger
}

// NewResolver builds the standard source chain: registry, user directory,
// bundled directory, system fonts, literal path, built-in Go fonts.
func NewResolver(opts Options) *Resolver {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.System == nil {
		opts.System = SystemFonts()
	}

	l := newLoader()
	return &Resolver{
		strategies: []Strategy{
			&registryStrategy{files: opts.Registry, loader: l, log: log},
			&dirStrategy{dir: opts.UserDir, source: "user", loader: l, log: log},
			&dirStrategy{dir: opts.BundledDir, source: "bundled", loader: l, log: log},
			&systemStrategy{table: opts.System, loader: l, log: log},
			&pathStrategy{loader: l, log: log},
			builtinStrategy{},
		},
		loader: l,
		opts:   opts,
		log:    log,
	}
}

// FromConfig builds a Resolver from the loaded configuration.
func FromConfig(cfg *config.Config, log logrus.FieldLogger) *Resolver {
	registry := make(map[string][]string, len(cfg.Fonts))
	for name, files := range cfg.Fonts {
		registry[name] = files.Paths()
	}
	return NewResolver(Options{
		Registry:   registry,
		UserDir:    cfg.UserFontDir(),
		BundledDir: cfg.FontDir,
		Log:        log,
	})
}

// Resolve returns a face for name at size. It always returns a usable face:
// "default", an empty name, or a name no source can load give Fallback.
func (r *Resolver) Resolve(name string, size int) font.Face {
	if name == "" || name == DefaultName {
		return Fallback()
	}
	if size <= 0 {
		r.log.WithFields(logrus.Fields{"font": name, "size": size}).Debug("non-positive font size, using fallback font")
		return Fallback()
	}

	for _, s := range r.strategies {
		if face, ok := s.TryResolve(name, size); ok {
			return face
		}
	}

	r.log.WithField("font", name).Debug("font not found in any source, using fallback font")
	return Fallback()
}

// UserDir is the directory fonts are installed into.
func (r *Resolver) UserDir() string { return r.opts.UserDir }

// Install copies a font into the user directory and drops any cached parse
// of the file it replaces.
func (r *Resolver) Install(filename string, src io.Reader) (string, error) {
	if r.opts.UserDir == "" {
		return "", apperr.Validation("no user font directory configured")
	}
	name, err := Install(r.opts.UserDir, filename, src)
	if err != nil {
		return "", err
	}
	r.loader.forget(filepath.Join(r.opts.UserDir, filepath.Base(filename)))
	r.log.WithField("font", name).Info("font installed")
	return name, nil
}
