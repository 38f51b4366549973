package mocks

import (
	"image"
	"sync"

	"github.com/user/accidentscan/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Frames       map[int][]byte
	ContactSheet image.Image
	ExportJSON   []byte
	DispatchJSON []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled: enabled,
		Frames:  make(map[int][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveFrame(index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[index] = data
	return nil
}

func (m *DebugSink) SaveContactSheet(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ContactSheet = img
	return nil
}

func (m *DebugSink) SaveExportJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExportJSON = data
	return nil
}

func (m *DebugSink) SaveDispatchJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DispatchJSON = data
	return nil
}

// FrameCount returns the number of saved frames (for test verification).
func (m *DebugSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames)
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                          { return false }
func (m *NullSink) SaveFrame(index int, data []byte) error { return nil }
func (m *NullSink) SaveContactSheet(img image.Image) error { return nil }
func (m *NullSink) SaveExportJSON(data []byte) error       { return nil }
func (m *NullSink) SaveDispatchJSON(data []byte) error     { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
