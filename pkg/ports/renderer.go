package ports

import (
	"image"
	"image/color"
)

// Renderer does the raster work on sampled frames: stretching captures to the
// model input size, encoding thumbnails and drawing the contact sheet.
type Renderer interface {
	// CreateCanvas returns a width x height canvas filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// EncodeImage encodes img. quality applies to JPEG only.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage stretches img to exactly width x height. The aspect ratio is
	// not preserved and the result is opaque.
	ResizeImage(img image.Image, width, height int) *image.RGBA
}

// Canvas is a drawing surface for the contact sheet.
type Canvas interface {
	DrawImageScaled(img image.Image, x, y, width, height int)
	DrawRect(x, y, w, h int, c color.Color)
	// DrawText centers text vertically on y; Align controls the x anchor.
	DrawText(text string, x, y int, style TextStyle)
	ToImage() image.Image
}

// TextStyle describes a label. An empty FontPath selects the built-in face.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
}

// TextAlign specifies text alignment.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)

// Anchor returns the horizontal anchor in [0,1].
func (a TextAlign) Anchor() float64 {
	switch a {
	case AlignCenter:
		return 0.5
	case AlignRight:
		return 1
	}
	return 0
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// ContentType returns the MIME type served for the format.
func (f ImageFormat) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}
