// Package config loads the PixelTyper configuration document.
//
// The configuration is read once at process start by the entry point and then
// passed by pointer to the components that need it. Nothing modifies a Config
// after Load returns.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppName is the per-user data directory segment.
const AppName = "PixelTyper"

// Config is the top-level structure of config.json (or config.yaml).
type Config struct {
	App     App                  `json:"app" yaml:"app"`
	DataDir string               `json:"data_dir" yaml:"data_dir"` // per-user data root
	FontDir string               `json:"font_dir" yaml:"font_dir"` // bundled fonts
	Fonts   map[string]FontFiles `json:"fonts" yaml:"fonts"`
	Capture Capture              `json:"capture" yaml:"capture"`
}

// App holds application metadata.
type App struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// Capture holds the maximum display box used while picking points.
type Capture struct {
	MaxWidth  int `json:"max_width" yaml:"max_width"`
	MaxHeight int `json:"max_height" yaml:"max_height"`
}

// FontFiles is a registered font's file list. It may be written as a single
// path, a list of paths, or a map of variant name to path ("normal", "bold").
type FontFiles struct {
	Variants map[string]string
	Order    []string // variant names in resolution order
}

// UnmarshalJSON accepts the three font entry forms.
func (f *FontFiles) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = FontFiles{Variants: map[string]string{"normal": single}, Order: []string{"normal"}}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = fromList(list)
		return nil
	}

	var variants map[string]string
	if err := json.Unmarshal(data, &variants); err != nil {
		return fmt.Errorf("font entry must be a path, a list of paths or a variant object: %w", err)
	}
	*f = FontFiles{Variants: variants, Order: variantOrder(variants)}
	return nil
}

// UnmarshalYAML accepts the same three forms as UnmarshalJSON.
func (f *FontFiles) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*f = FontFiles{Variants: map[string]string{"normal": single}, Order: []string{"normal"}}
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*f = fromList(list)
	case yaml.MappingNode:
		var variants map[string]string
		if err := value.Decode(&variants); err != nil {
			return err
		}
		*f = FontFiles{Variants: variants, Order: variantOrder(variants)}
	default:
		return fmt.Errorf("line %d: font entry must be a path, a list of paths or a variant map", value.Line)
	}
	return nil
}

func fromList(list []string) FontFiles {
	ff := FontFiles{Variants: make(map[string]string, len(list))}
	for i, p := range list {
		key := fmt.Sprintf("%d", i)
		ff.Variants[key] = p
		ff.Order = append(ff.Order, key)
	}
	return ff
}

// MarshalJSON writes the variant object form.
func (f FontFiles) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Variants)
}

// Paths returns the registered files in resolution order.
func (f FontFiles) Paths() []string {
	paths := make([]string, 0, len(f.Order))
	for _, k := range f.Order {
		if p := f.Variants[k]; p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// "normal" first, the rest alphabetically.
func variantOrder(v map[string]string) []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		if k != "normal" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := v["normal"]; ok {
		keys = append([]string{"normal"}, keys...)
	}
	return keys
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		App:     App{Name: AppName, Version: "dev"},
		FontDir: "fonts",
		Fonts:   map[string]FontFiles{},
		Capture: Capture{MaxWidth: 1280, MaxHeight: 720},
	}
}

// Load reads the config file at path, as YAML when the extension is .yaml or
// .yml and as JSON otherwise. A missing file yields Default with relative
// paths anchored at the working directory. Relative font paths and font_dir
// are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, cfg.finish(".")
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.finish(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies defaults and resolves relative paths against baseDir.
func (c *Config) finish(baseDir string) error {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	if c.App.Name == "" {
		c.App.Name = AppName
	}
	if c.Fonts == nil {
		c.Fonts = map[string]FontFiles{}
	}
	if c.Capture.MaxWidth <= 0 {
		c.Capture.MaxWidth = 1280
	}
	if c.Capture.MaxHeight <= 0 {
		c.Capture.MaxHeight = 720
	}

	c.FontDir = resolve(c.FontDir)
	for name, ff := range c.Fonts {
		resolved := FontFiles{Variants: make(map[string]string, len(ff.Variants)), Order: ff.Order}
		for k, p := range ff.Variants {
			resolved.Variants[k] = resolve(p)
		}
		c.Fonts[name] = resolved
	}

	if c.DataDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("locate user data directory: %w", err)
		}
		c.DataDir = filepath.Join(base, AppName)
	} else {
		c.DataDir = resolve(c.DataDir)
	}
	return nil
}

// TemplateDir is where coordinate templates are stored.
func (c *Config) TemplateDir() string { return filepath.Join(c.DataDir, "coord_templates") }

// UserFontDir is the per-user font directory.
func (c *Config) UserFontDir() string { return filepath.Join(c.DataDir, "fonts") }

// OutputDir is the default directory for rendered images.
func (c *Config) OutputDir() string { return filepath.Join(c.DataDir, "outputs") }

// WithDataDir returns a copy of c rooted at dir.
func (c *Config) WithDataDir(dir string) *Config {
	cp := *c
	cp.DataDir = dir
	return &cp
}
