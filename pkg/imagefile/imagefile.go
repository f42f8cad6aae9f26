// Package imagefile reads and writes raster images for PixelTyper.
//
// Every path goes through one pipeline: decode whatever the file holds, convert
// it to an opaque RGBA working buffer, and encode by the output extension.
package imagefile

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/xob0t/PixelTyper/pkg/apperr"
)

// Load decodes the image at path. A missing file is apperr.ErrNotFound and a
// file that no registered decoder accepts is apperr.ErrLoad.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("image %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open image %s: %v: %w", path, err, apperr.ErrLoad)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %v: %w", path, err, apperr.ErrLoad)
	}
	return img, nil
}

// ToRGB copies img into a new RGBA buffer whose origin is (0, 0) and whose
// pixels are all fully opaque. Transparent areas become black, as they would
// when an alpha channel is simply dropped.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			out.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return out
}

// NewSolid creates a uniform opaque image of the given size.
func NewSolid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	r, g, b, _ := c.RGBA()
	fill := color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}
	draw.Draw(img, img.Bounds(), &image.Uniform{fill}, image.Point{}, draw.Src)
	return img
}
