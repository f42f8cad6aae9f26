// store.go - Persist templates as one JSON document per template.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/PixelTyper/pkg/apperr"
	"github.com/xob0t/PixelTyper/pkg/render"
)

// Ext is the template file extension.
const Ext = ".json"

// Store reads and writes templates under a directory. It does not lock files:
// concurrent writers to one template name race and the last write wins.
type Store struct {
	dir string
	log logrus.FieldLogger
}

// NewStore returns a store over dir. The directory is created on first save.
func NewStore(dir string, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{dir: dir, log: log}
}

// Dir returns the template directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the file path for a template name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+Ext)
}

// Save writes pts as template name, replacing any existing template of that
// name. The file is written to a temporary name and renamed into place, so a
// reader never sees a partial template.
func (s *Store) Save(name string, pts Points) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	data, err := json.MarshalIndent(pts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode template %q: %w", name, err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("save template %q: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("save template %q: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save template %q: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("save template %q: %w", name, err)
	}

	s.log.WithFields(logrus.Fields{"template": name, "points": pts.Len()}).Info("template saved")
	return nil
}

// Load reads template name.
func (s *Store) Load(name string) (Points, error) {
	if err := ValidateName(name); err != nil {
		return Points{}, err
	}

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return Points{}, fmt.Errorf("template %q: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return Points{}, fmt.Errorf("read template %q: %w", name, err)
	}

	var pts Points
	if err := json.Unmarshal(data, &pts); err != nil {
		return Points{}, fmt.Errorf("parse template %q: %v: %w", name, err, apperr.ErrLoad)
	}
	return pts, nil
}

// Exists reports whether template name has a file.
func (s *Store) Exists(name string) bool {
	if ValidateName(name) != nil {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// List returns the sorted names of stored templates. A missing directory is
// an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	names := []string{}
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || filepath.Ext(n) != Ext {
			continue
		}
		names = append(names, strings.TrimSuffix(n, Ext))
	}
	sort.Strings(names)
	return names, nil
}

// UpdateFonts overwrites the supplied font fields of existing points and
// writes the template back in one save. Positions are never changed. Points
// in updates that the template lacks are skipped; their names are returned
// sorted.
func (s *Store) UpdateFonts(name string, updates map[string]FontFields) ([]string, error) {
	pts, err := s.Load(name)
	if err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(updates))
	for point, f := range updates {
		if err := ValidateUpdate(point, f); err != nil {
			return nil, err
		}
		targets = append(targets, point)
	}
	sort.Strings(targets)

	skipped := []string{}
	for _, point := range targets {
		p, ok := pts.Get(point)
		if !ok {
			s.log.WithFields(logrus.Fields{"template": name, "point": point}).Warn("point not in template, update skipped")
			skipped = append(skipped, point)
			continue
		}
		update := updates[point]
		if update.IsZero() {
			continue
		}
		if update.Opacity != nil {
			update = update.WithOpacity(render.ClampOpacity(*update.Opacity))
		}
		pts.Set(point, mergeFonts(p, update))
	}

	if err := s.Save(name, pts); err != nil {
		return skipped, err
	}
	return skipped, nil
}
