// Package contactsheet renders sampled frames as a labeled thumbnail grid.
package contactsheet

import (
	"image"
	"image/color"
	"strconv"

	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
)

// Options controls the grid geometry.
type Options struct {
	Columns    int
	Thumb      int // Thumbnail edge in pixels
	Gap        int
	LabelSize  float64
	FontPath   string
	Background color.Color
	LabelColor color.Color
	LabelBg    color.Color
}

// DefaultOptions returns a 10-column grid of 112px thumbnails.
func DefaultOptions() Options {
	return Options{
		Columns:    10,
		Thumb:      112,
		Gap:        6,
		LabelSize:  12,
		Background: color.RGBA{R: 245, G: 245, B: 245, A: 255},
		LabelColor: color.White,
		LabelBg:    color.RGBA{A: 160},
	}
}

// Layout returns the canvas size for n frames.
func Layout(n int, opts Options) (width, height int) {
	cols := opts.Columns
	if cols <= 0 {
		cols = 10
	}
	if n < cols {
		cols = n
	}
	if n == 0 {
		return 0, 0
	}
	rows := (n + cols - 1) / cols
	width = cols*opts.Thumb + (cols+1)*opts.Gap
	height = rows*opts.Thumb + (rows+1)*opts.Gap
	return width, height
}

// Render draws frames in reading order with 1-based labels in the top-left corner.
// It returns nil for an empty collection.
func Render(renderer ports.Renderer, frames []pipeline.SampledFrame, opts Options) image.Image {
	if len(frames) == 0 {
		return nil
	}
	cols := opts.Columns
	if cols <= 0 {
		cols = 10
	}

	width, height := Layout(len(frames), opts)
	canvas := renderer.CreateCanvas(width, height, opts.Background)

	labelW := int(opts.LabelSize * 2.2)
	labelH := int(opts.LabelSize * 1.5)
	style := ports.TextStyle{
		FontSize: opts.LabelSize,
		FontPath: opts.FontPath,
		Color:    opts.LabelColor,
		Align:    ports.AlignCenter,
	}

	for i, f := range frames {
		x := opts.Gap + (i%cols)*(opts.Thumb+opts.Gap)
		y := opts.Gap + (i/cols)*(opts.Thumb+opts.Gap)
		if f.Pixels != nil {
			canvas.DrawImageScaled(f.Pixels, x, y, opts.Thumb, opts.Thumb)
		}
		canvas.DrawRect(x, y, labelW, labelH, opts.LabelBg)
		canvas.DrawText(strconv.Itoa(i+1), x+labelW/2, y+labelH/2, style)
	}

	return canvas.ToImage()
}
