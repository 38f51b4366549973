package contactsheet

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/accidentscan/pkg/adapters/ggrenderer"
	"github.com/user/accidentscan/pkg/mocks"
	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
)

func frames(n int) []pipeline.SampledFrame {
	out := make([]pipeline.SampledFrame, n)
	for i := range out {
		out[i] = pipeline.SampledFrame{Index: i, Pixels: image.NewRGBA(image.Rect(0, 0, 224, 224))}
	}
	return out
}

func TestLayout(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		n, w, h int
	}{
		{0, 0, 0},
		{3, 3*112 + 4*6, 112 + 2*6},
		{10, 10*112 + 11*6, 112 + 2*6},
		{60, 10*112 + 11*6, 6*112 + 7*6},
		{61, 10*112 + 11*6, 7*112 + 8*6},
	}
	for _, tt := range tests {
		w, h := Layout(tt.n, opts)
		if w != tt.w || h != tt.h {
			t.Errorf("Layout(%d) = %dx%d, want %dx%d", tt.n, w, h, tt.w, tt.h)
		}
	}
}

func TestRender_Labels(t *testing.T) {
	var canvas *mocks.Canvas
	renderer := &mocks.Renderer{
		CreateCanvasFunc: func(width, height int, bg color.Color) ports.Canvas {
			canvas = &mocks.Canvas{}
			return canvas
		},
	}

	Render(renderer, frames(12), DefaultOptions())

	if canvas == nil {
		t.Fatal("expected a canvas")
	}
	if canvas.Images != 12 {
		t.Errorf("expected 12 thumbnails, got %d", canvas.Images)
	}
	if len(canvas.Texts) != 12 || canvas.Texts[0] != "1" || canvas.Texts[11] != "12" {
		t.Errorf("expected labels 1..12, got %v", canvas.Texts)
	}
}

func TestRender_Image(t *testing.T) {
	img := Render(ggrenderer.New(), frames(60), DefaultOptions())
	if img == nil {
		t.Fatal("expected image")
	}
	w, h := Layout(60, DefaultOptions())
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Errorf("expected %dx%d, got %v", w, h, img.Bounds())
	}
}

func TestRender_Empty(t *testing.T) {
	if Render(ggrenderer.New(), nil, DefaultOptions()) != nil {
		t.Error("expected nil for no frames")
	}
}
