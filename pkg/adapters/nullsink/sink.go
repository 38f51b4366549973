// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/accidentscan/pkg/ports"
)

// Sink discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false so stages can skip encoding work.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveFrame(index int, data []byte) error { return nil }

func (s *Sink) SaveContactSheet(img image.Image) error { return nil }

func (s *Sink) SaveExportJSON(data []byte) error { return nil }

func (s *Sink) SaveDispatchJSON(data []byte) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
