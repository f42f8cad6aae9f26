package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"golang.org/x/image/font/basicfont"
)

func whiteCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

// darkest returns the lowest red value in img, which for black text on white
// tells how strongly glyphs were painted.
func darkest(img *image.RGBA) uint8 {
	low := uint8(255)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r := img.RGBAAt(x, y).R; r < low {
				low = r
			}
		}
	}
	return low
}

func TestDrawTextOpaque(t *testing.T) {
	img := whiteCanvas(80, 30)
	out := DrawText(img, image.Pt(2, 2), "Hello", Black, basicfont.Face7x13, 100)
	if out != img {
		t.Fatal("opaque draw should paint into the given image")
	}
	if got := darkest(out); got != 0 {
		t.Errorf("darkest pixel = %d, want fully black glyph pixels", got)
	}
}

func TestDrawTextAnchorIsTopLeft(t *testing.T) {
	img := whiteCanvas(80, 40)
	DrawText(img, image.Pt(10, 20), "H", Black, basicfont.Face7x13, 100)

	// Nothing above the anchor row or left of the anchor column.
	for y := 0; y < 20; y++ {
		for x := 0; x < 80; x++ {
			if img.RGBAAt(x, y).R != 255 {
				t.Fatalf("pixel (%d,%d) painted above the anchor", x, y)
			}
		}
	}
	for y := 0; y < 40; y++ {
		for x := 0; x < 10; x++ {
			if img.RGBAAt(x, y).R != 255 {
				t.Fatalf("pixel (%d,%d) painted left of the anchor", x, y)
			}
		}
	}
	if darkest(img) == 255 {
		t.Fatal("glyph was not drawn")
	}
}

func TestDrawTextHalfOpacityBlends(t *testing.T) {
	img := whiteCanvas(80, 30)
	DrawText(img, image.Pt(2, 2), "Hello", Black, basicfont.Face7x13, 50)

	got := darkest(img)
	if got == 0 || got == 255 {
		t.Fatalf("darkest pixel = %d, want a blended grey", got)
	}
	if got < 120 || got > 135 {
		t.Errorf("darkest pixel = %d, want about 127 for 50%% black over white", got)
	}
	for _, px := range []color.RGBA{img.RGBAAt(0, 0), img.RGBAAt(79, 29)} {
		if px.A != 255 {
			t.Errorf("composited background lost opacity: %v", px)
		}
	}
}

func TestDrawTextZeroOpacityLeavesPixels(t *testing.T) {
	img := whiteCanvas(80, 30)
	before := append([]uint8(nil), img.Pix...)

	out := DrawText(img, image.Pt(2, 2), "Hidden", RGB{255, 0, 0}, basicfont.Face7x13, 0)
	if out == nil {
		t.Fatal("nil result")
	}
	for i := range before {
		if out.Pix[i] != before[i] {
			t.Fatalf("pixel byte %d changed from %d to %d", i, before[i], out.Pix[i])
		}
	}
}

func TestDrawTextClipsOutsideCanvas(t *testing.T) {
	img := whiteCanvas(20, 20)
	DrawText(img, image.Pt(500, -300), "far away", Black, basicfont.Face7x13, 100)
	DrawText(img, image.Pt(15, 15), "edge", Black, basicfont.Face7x13, 40)
	if img.Bounds() != image.Rect(0, 0, 20, 20) {
		t.Errorf("bounds changed: %v", img.Bounds())
	}
}

func TestMeasure(t *testing.T) {
	w, h := Measure(basicfont.Face7x13, "abc")
	if w != 21 {
		t.Errorf("width = %d, want 21", w)
	}
	if h != 13 {
		t.Errorf("height = %d, want 13", h)
	}
}
