// Package compose renders text onto images, either at the labeled points of a
// stored template or at a single position.
package compose

import (
	"image"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/PixelTyper/pkg/apperr"
	"github.com/xob0t/PixelTyper/pkg/fonts"
	"github.com/xob0t/PixelTyper/pkg/imagefile"
	"github.com/xob0t/PixelTyper/pkg/render"
	"github.com/xob0t/PixelTyper/pkg/template"
)

// Engine composites template text onto images.
type Engine struct {
	fonts *fonts.Resolver
	store *template.Store
	log   logrus.FieldLogger
}

// New returns an engine that resolves fonts with r and loads templates from s.
func New(r *fonts.Resolver, s *template.Store, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{fonts: r, store: s, log: log}
}

// ApplyRequest describes one template render.
type ApplyRequest struct {
	ImagePath string
	Template  string
	Texts     template.TextMapping
	// Overrides holds call-scoped font fields per point. They are never saved.
	Overrides map[string]template.FontFields
	// Defaults is used for each field that neither the override nor the
	// template sets.
	Defaults   template.Style
	OutputPath string // empty means do not write a file
}

// Result is the outcome of Apply.
type Result struct {
	Image   *image.RGBA
	Skipped []string // points not in the template, in mapping order
	Drawn   int
}

// Apply draws every text of req at its template point and returns the
// composited image. Points missing from the template are skipped with a
// warning. Texts are drawn in mapping order, so later entries cover earlier
// ones where they overlap.
func (e *Engine) Apply(req ApplyRequest) (*Result, error) {
	switch {
	case strings.TrimSpace(req.Template) == "":
		return nil, apperr.Validation("template name is required")
	case len(req.Texts) == 0:
		return nil, apperr.Validation("text mapping is empty")
	case req.Defaults.Size <= 0:
		return nil, apperr.Validation("default font size must be positive, got %d", req.Defaults.Size)
	}

	pts, err := e.store.Load(req.Template)
	if err != nil {
		return nil, err
	}
	src, err := imagefile.Load(req.ImagePath)
	if err != nil {
		return nil, err
	}
	img := imagefile.ToRGB(src)

	log := e.log.WithField("template", req.Template)
	res := &Result{Image: img, Skipped: []string{}}

	for _, entry := range req.Texts.Normalize() {
		if entry.Text == "" {
			continue
		}
		p, ok := pts.Get(entry.Point)
		if !ok {
			log.WithField("point", entry.Point).Warn("point not in template, skipped")
			res.Skipped = append(res.Skipped, entry.Point)
			continue
		}

		style := template.ResolveStyle(p, req.Overrides[entry.Point], req.Defaults)
		e.draw(img, image.Pt(p.X, p.Y), entry.Text, style)
		res.Drawn++

		log.WithFields(logrus.Fields{
			"point": entry.Point,
			"font":  style.Font,
			"size":  style.Size,
		}).Debug("text drawn")
	}

	if req.OutputPath != "" {
		if err := imagefile.Save(req.OutputPath, img); err != nil {
			return nil, err
		}
		log.WithField("output", req.OutputPath).Info("image saved")
	}
	return res, nil
}

// draw renders one text with a resolved style.
func (e *Engine) draw(img *image.RGBA, at image.Point, text string, s template.Style) {
	face := e.fonts.Resolve(s.Font, s.Size)
	render.DrawText(img, at, text, render.NormalizeColor(s.Color), face, render.ClampOpacity(s.Opacity))
}
