//go:build !gocv

package gocvsource

import "github.com/user/accidentscan/pkg/ports"

// Available reports whether OpenCV support is compiled in.
func Available() bool { return false }

// Open always fails without the gocv build tag.
func (o *Opener) Open(path string) (ports.RasterSource, error) {
	return nil, ErrUnavailable
}

var _ ports.SourceOpener = (*Opener)(nil)
