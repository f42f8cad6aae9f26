package compose

import (
	"image"

	"github.com/xob0t/PixelTyper/pkg/apperr"
	"github.com/xob0t/PixelTyper/pkg/imagefile"
	"github.com/xob0t/PixelTyper/pkg/template"
)

// OverlayRequest draws a single line of text at one position.
type OverlayRequest struct {
	ImagePath  string
	Text       string
	Position   image.Point
	Style      template.Style
	OutputPath string
}

// Overlay draws req.Text onto the image at req.Position and saves the result
// when req.OutputPath is set.
func (e *Engine) Overlay(req OverlayRequest) (*image.RGBA, error) {
	if req.Text == "" {
		return nil, apperr.Validation("text is required")
	}
	if req.Style.Size <= 0 {
		return nil, apperr.Validation("font size must be positive, got %d", req.Style.Size)
	}

	src, err := imagefile.Load(req.ImagePath)
	if err != nil {
		return nil, err
	}
	img := imagefile.ToRGB(src)
	e.draw(img, req.Position, req.Text, req.Style)

	if req.OutputPath != "" {
		if err := imagefile.Save(req.OutputPath, img); err != nil {
			return nil, err
		}
		e.log.WithField("output", req.OutputPath).Info("image saved")
	}
	return img, nil
}
