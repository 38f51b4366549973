// Package gocvsource captures video frames with OpenCV through gocv.
// The OpenCV-backed implementation is compiled with the "gocv" build tag;
// without it Open reports ErrUnavailable.
package gocvsource

import (
	"errors"
	"math"
)

var (
	// ErrUnavailable is returned when the binary was built without OpenCV support.
	ErrUnavailable = errors.New("gocvsource: built without the gocv tag")

	// ErrOpenFailed is returned when OpenCV cannot open the file.
	ErrOpenFailed = errors.New("gocvsource: cannot open video")

	// ErrReadFailed is returned when no frame could be read after a seek.
	ErrReadFailed = errors.New("gocvsource: cannot read frame")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("gocvsource: source closed")
)

// Opener opens files through OpenCV's VideoCapture.
type Opener struct{}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// durationFromCounts derives seconds from a frame count and rate. Containers
// that report neither yield 0.
func durationFromCounts(frameCount, fps float64) float64 {
	if fps <= 0 || frameCount <= 0 || math.IsNaN(fps) || math.IsNaN(frameCount) {
		return 0
	}
	return frameCount / fps
}
