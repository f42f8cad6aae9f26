// text.go - Single-line text drawing with optional alpha compositing.
// Uses golang.org/x/image/font drawers; the anchor is the top-left corner of
// the line, matching how templates record click positions.
package render

import (
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// DrawText draws one line of text at pos onto img and returns img.
//
// At full opacity the glyphs are drawn straight into img. Below full opacity
// the text is drawn onto a transparent overlay of the same bounds with alpha
// round(255*opacity/100) and the overlay is composited over img. Opacity 0
// still runs the draw and the composite. Text outside the canvas is clipped.
func DrawText(img *image.RGBA, pos image.Point, text string, col RGB, face font.Face, opacity int) *image.RGBA {
	opacity = ClampOpacity(opacity)

	if opacity == 100 {
		drawString(img, text, pos, image.NewUniform(col.Opaque()), face)
		return img
	}

	overlay := image.NewNRGBA(img.Bounds())
	drawString(overlay, text, pos, image.NewUniform(col.WithAlpha(Alpha(opacity))), face)
	draw.Draw(img, img.Bounds(), overlay, img.Bounds().Min, draw.Over)
	return img
}

// drawString draws text with its top-left corner at pos.
func drawString(dst draw.Image, text string, pos image.Point, src image.Image, face font.Face) {
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(pos.X), Y: fixed.I(pos.Y) + face.Metrics().Ascent},
	}
	drawer.DrawString(text)
}

// Measure returns the advance width and line height of text in pixels.
func Measure(face font.Face, text string) (width, height int) {
	m := face.Metrics()
	return font.MeasureString(face, text).Ceil(), (m.Ascent + m.Descent).Ceil()
}
