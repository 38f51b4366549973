// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"image"
)

// VideoInfo describes a loaded video resource.
type VideoInfo struct {
	DurationSec float64 // Duration in seconds
	Width       int     // Natural width in pixels
	Height      int     // Natural height in pixels
	Codec       string  // Codec name if known (e.g. "h264")
}

// RasterSource abstracts a seekable video that can rasterize the
// currently displayed picture.
type RasterSource interface {
	// Metadata loads the duration and natural dimensions of the video.
	Metadata(ctx context.Context) (VideoInfo, error)

	// SeekAndCapture seeks to the given timestamp, waits for the seek to
	// settle and returns the displayed picture at its natural size.
	SeekAndCapture(ctx context.Context, timestampSec float64) (image.Image, error)

	// Close releases the source. Captures after Close fail.
	Close() error
}

// SourceOpener creates a RasterSource for a video file.
type SourceOpener interface {
	// Open prepares a source for the file at path. It does not load metadata.
	Open(path string) (RasterSource, error)
}
