package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving intermediate processing results for debugging purposes.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveFrame saves an encoded sampled frame.
	SaveFrame(index int, data []byte) error

	// SaveContactSheet saves the grid of all sampled frames.
	SaveContactSheet(img image.Image) error

	// SaveExportJSON saves the normalized frame export document.
	SaveExportJSON(data []byte) error

	// SaveDispatchJSON saves metadata about the inference request and its outcome.
	SaveDispatchJSON(data []byte) error
}
