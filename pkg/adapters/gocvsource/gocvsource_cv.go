//go:build gocv

package gocvsource

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/user/accidentscan/pkg/ports"
)

// Available reports whether OpenCV support is compiled in.
func Available() bool { return true }

// Open opens path with OpenCV.
func (o *Opener) Open(path string) (ports.RasterSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, ErrOpenFailed
	}
	return &Source{vc: vc, frame: gocv.NewMat()}, nil
}

// Source is a ports.RasterSource backed by gocv.VideoCapture.
type Source struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	frame  gocv.Mat
	closed bool
}

// Metadata reads size and duration from the capture properties.
func (s *Source) Metadata(ctx context.Context) (ports.VideoInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ports.VideoInfo{}, ErrClosed
	}

	return ports.VideoInfo{
		DurationSec: durationFromCounts(s.vc.Get(gocv.VideoCaptureFrameCount), s.vc.Get(gocv.VideoCaptureFPS)),
		Width:       int(s.vc.Get(gocv.VideoCaptureFrameWidth)),
		Height:      int(s.vc.Get(gocv.VideoCaptureFrameHeight)),
		Codec:       s.vc.CodecString(),
	}, nil
}

// SeekAndCapture positions the capture at timestampSec and reads one frame.
// OpenCV seeks are synchronous; ctx is only checked before the seek.
func (s *Source) SeekAndCapture(ctx context.Context, timestampSec float64) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.vc.Set(gocv.VideoCapturePosMsec, timestampSec*1000)
	if ok := s.vc.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, fmt.Errorf("%w at %.3fs", ErrReadFailed, timestampSec)
	}

	img, err := s.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// Close releases the capture and the frame buffer.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.frame.Close()
	return s.vc.Close()
}

var (
	_ ports.RasterSource = (*Source)(nil)
	_ ports.SourceOpener = (*Opener)(nil)
)
