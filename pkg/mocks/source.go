// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/user/accidentscan/pkg/ports"
)

// ErrSourceClosed is returned by RasterSource after Close.
var ErrSourceClosed = errors.New("mocks: source closed")

// RasterSource is a mock implementation of ports.RasterSource.
// By default it reports Info and returns a solid frame whose red channel
// encodes the seek count.
type RasterSource struct {
	mu     sync.Mutex
	seeks  []float64
	closed bool

	Info ports.VideoInfo

	MetadataFunc       func(ctx context.Context) (ports.VideoInfo, error)
	SeekAndCaptureFunc func(ctx context.Context, timestampSec float64) (image.Image, error)
	CloseFunc          func() error
}

// NewRasterSource creates a mock source of the given duration and size.
func NewRasterSource(durationSec float64, width, height int) *RasterSource {
	return &RasterSource{
		Info: ports.VideoInfo{DurationSec: durationSec, Width: width, Height: height, Codec: "h264"},
	}
}

func (m *RasterSource) Metadata(ctx context.Context) (ports.VideoInfo, error) {
	if m.MetadataFunc != nil {
		return m.MetadataFunc(ctx)
	}
	return m.Info, nil
}

func (m *RasterSource) SeekAndCapture(ctx context.Context, timestampSec float64) (image.Image, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrSourceClosed
	}
	m.seeks = append(m.seeks, timestampSec)
	n := len(m.seeks)
	m.mu.Unlock()

	if m.SeekAndCaptureFunc != nil {
		return m.SeekAndCaptureFunc(ctx, timestampSec)
	}

	w, h := m.Info.Width, m.Info.Height
	if w <= 0 || h <= 0 {
		w, h = 64, 48
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: uint8(n), G: 128, B: 64, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

func (m *RasterSource) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Seeks returns the timestamps requested so far (for test verification).
func (m *RasterSource) Seeks() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.seeks))
	copy(out, m.seeks)
	return out
}

// Closed reports whether Close was called.
func (m *RasterSource) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

var _ ports.RasterSource = (*RasterSource)(nil)

// SourceOpener is a mock implementation of ports.SourceOpener.
type SourceOpener struct {
	mu     sync.Mutex
	opened []string

	OpenFunc func(path string) (ports.RasterSource, error)
}

func (m *SourceOpener) Open(path string) (ports.RasterSource, error) {
	m.mu.Lock()
	m.opened = append(m.opened, path)
	m.mu.Unlock()
	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	return NewRasterSource(6, 64, 48), nil
}

// Opened returns the paths opened so far.
func (m *SourceOpener) Opened() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.opened))
	copy(out, m.opened)
	return out
}

var _ ports.SourceOpener = (*SourceOpener)(nil)
