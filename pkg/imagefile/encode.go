// encode.go - Extension-driven image writers.
package imagefile

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/xob0t/PixelTyper/pkg/apperr"
)

// JPEGQuality is the quality used for .jpg and .jpeg output.
const JPEGQuality = 95

// Formats lists the output extensions Save understands.
var Formats = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// ContentType returns the MIME type for an output extension, or "" if the
// extension is not supported.
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	return ""
}

// Save writes img to path as opaque RGB, in the format named by the path's
// extension. Parent directories are created as needed.
func Save(path string, img image.Image) error {
	ext := filepath.Ext(path)
	if ContentType(ext) == "" {
		return apperr.Validation("unsupported output format %q: use one of %s", ext, strings.Join(Formats, " "))
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, ext, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Encode writes img to w as opaque RGB in the format selected by ext.
func Encode(w io.Writer, ext string, img image.Image) error {
	rgb, ok := img.(*image.RGBA)
	if !ok || !rgb.Opaque() {
		rgb = ToRGB(img)
	}

	var err error
	switch strings.ToLower(ext) {
	case ".png":
		err = png.Encode(w, rgb)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(w, rgb, &jpeg.Options{Quality: JPEGQuality})
	case ".gif":
		err = gif.Encode(w, rgb, nil)
	case ".bmp":
		err = bmp.Encode(w, rgb)
	case ".tif", ".tiff":
		err = tiff.Encode(w, rgb, &tiff.Options{Compression: tiff.Deflate})
	default:
		return apperr.Validation("unsupported output format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", strings.TrimPrefix(ext, "."), err)
	}
	return nil
}
