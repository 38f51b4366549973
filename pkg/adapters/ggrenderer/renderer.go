// Package ggrenderer implements ports.Renderer with gg and x/image.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/accidentscan/pkg/ports"
)

// Renderer stretches frames with bilinear filtering and draws with gg.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// CreateCanvas creates a canvas backed by a gg context.
func (r *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	dc := gg.NewContext(width, height)
	dc.SetColor(bg)
	dc.Clear()
	return &Canvas{dc: dc}
}

// EncodeImage encodes img as JPEG or PNG.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	var (
		buf bytes.Buffer
		err error
	)
	switch format {
	case ports.FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case ports.FormatPNG:
		err = png.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format.ContentType(), err)
	}
	return buf.Bytes(), nil
}

// ResizeImage stretches img onto an opaque black width x height frame, the way
// drawImage(video, 0, 0, w, h) fills a 2D canvas.
func (r *Renderer) ResizeImage(img image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas on a gg.Context.
type Canvas struct {
	dc *gg.Context
}

// DrawImageScaled scales img into the given cell with Catmull-Rom filtering.
func (c *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	dst, ok := c.dc.Image().(draw.Image)
	if !ok {
		return
	}
	cell := image.Rect(x, y, x+width, y+height)
	draw.CatmullRom.Scale(dst, cell, img, img.Bounds(), draw.Over, nil)
}

// DrawRect fills a rectangle.
func (c *Canvas) DrawRect(x, y, w, h int, col color.Color) {
	c.dc.SetColor(col)
	c.dc.DrawRectangle(float64(x), float64(y), float64(w), float64(h))
	c.dc.Fill()
}

// DrawText draws a label. gg keeps its built-in face when FontPath cannot be loaded.
func (c *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	if style.FontPath != "" {
		_ = c.dc.LoadFontFace(style.FontPath, style.FontSize)
	}
	c.dc.SetColor(style.Color)
	c.dc.DrawStringAnchored(text, float64(x), float64(y), style.Align.Anchor(), 0.5)
}

// ToImage returns the canvas pixels.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

var _ ports.Canvas = (*Canvas)(nil)
