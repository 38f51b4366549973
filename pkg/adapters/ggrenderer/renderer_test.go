package ggrenderer

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"testing"

	"github.com/user/accidentscan/pkg/ports"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestRenderer_CreateCanvas(t *testing.T) {
	r := New()

	canvas := r.CreateCanvas(100, 100, color.White)
	if canvas == nil {
		t.Fatal("expected canvas to be created")
	}

	bounds := canvas.ToImage().Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 100 {
		t.Errorf("expected 100x100, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeJPEG(t *testing.T) {
	r := New()
	img := solid(224, 224, color.RGBA{R: 255, A: 255})

	data, err := r.EncodeImage(img, ports.FormatJPEG, 95)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatal("expected JPEG SOI marker")
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg, got %s", format)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 224 || bounds.Dy() != 224 {
		t.Errorf("expected 224x224, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	red, green, _, _ := decoded.At(112, 112).RGBA()
	if red>>8 < 240 || green>>8 > 15 {
		t.Errorf("expected near-red pixel, got r=%d g=%d", red>>8, green>>8)
	}
}

func TestRenderer_EncodePNG(t *testing.T) {
	r := New()

	img := image.NewRGBA(image.Rect(0, 0, 30, 30))

	data, err := r.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage failed: %v", err)
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if format != "png" {
		t.Errorf("expected png, got %s", format)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() != 30 || bounds.Dy() != 30 {
		t.Errorf("expected 30x30, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderer_EncodeUnsupported(t *testing.T) {
	r := New()
	if _, err := r.EncodeImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), ports.ImageFormat(99), 0); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRenderer_ResizeImageStretches(t *testing.T) {
	r := New()

	// 16:9 input must fill the whole square without letterboxing.
	img := solid(640, 360, color.RGBA{R: 10, G: 200, B: 30, A: 255})

	resized := r.ResizeImage(img, 224, 224)

	bounds := resized.Bounds()
	if bounds.Dx() != 224 || bounds.Dy() != 224 {
		t.Fatalf("expected 224x224, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	for _, p := range []image.Point{{0, 0}, {223, 0}, {0, 223}, {223, 223}, {112, 112}} {
		c := resized.RGBAAt(p.X, p.Y)
		if c.A != 255 {
			t.Errorf("pixel %v: expected opaque, got alpha %d", p, c.A)
		}
		if c.G < 190 {
			t.Errorf("pixel %v: expected source color, got %+v", p, c)
		}
	}
}

func TestRenderer_ResizeImageOpaque(t *testing.T) {
	r := New()

	// Fully transparent input composes over black.
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	resized := r.ResizeImage(img, 4, 4)

	c := resized.RGBAAt(2, 2)
	if c != (color.RGBA{A: 255}) {
		t.Errorf("expected opaque black, got %+v", c)
	}
}

func TestCanvas_DrawRect(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	canvas.DrawRect(10, 10, 30, 30, color.RGBA{R: 255, A: 255})

	img := canvas.ToImage()

	_, g, _, _ := img.At(20, 20).RGBA()
	if g != 0 {
		t.Error("expected red pixel inside rectangle")
	}
}

func TestCanvas_DrawImageScaled(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(100, 100, color.White)

	small := solid(10, 10, color.RGBA{R: 255, A: 255})
	canvas.DrawImageScaled(small, 20, 20, 40, 40)

	img := canvas.ToImage()

	_, g, _, _ := img.At(50, 50).RGBA()
	if g != 0 {
		t.Error("expected red pixel inside scaled image")
	}
	_, g, _, _ = img.At(5, 5).RGBA()
	if g == 0 {
		t.Error("expected background outside scaled image")
	}
}

func TestCanvas_DrawText(t *testing.T) {
	r := New()
	canvas := r.CreateCanvas(200, 50, color.White)

	style := ports.TextStyle{
		FontSize: 14,
		FontPath: "/nonexistent/font.ttf",
		Color:    color.Black,
		Align:    ports.AlignCenter,
	}

	// Should not panic with a missing font.
	canvas.DrawText("12", 100, 25, style)

	if canvas.ToImage() == nil {
		t.Error("expected image to be created")
	}
}
