// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/accidentscan/pkg/ports"
)

// Sink writes intermediate artifacts under a base directory:
//
//	frames/frame-0001.jpg ... frames/frame-0060.jpg
//	contact-sheet.png
//	extracted_frames.json
//	dispatch.json
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveFrame saves an encoded sampled frame. Files are numbered from 1.
func (s *Sink) SaveFrame(index int, data []byte) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.jpg", index+1))
	return s.fs.WriteFile(path, data)
}

// SaveContactSheet encodes the grid as PNG.
func (s *Sink) SaveContactSheet(img image.Image) error {
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode contact sheet: %w", err)
	}
	return s.fs.WriteFile(filepath.Join(s.baseDir, "contact-sheet.png"), data)
}

// SaveExportJSON saves the normalized frame export document.
func (s *Sink) SaveExportJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "extracted_frames.json"), data)
}

// SaveDispatchJSON saves the inference request summary.
func (s *Sink) SaveDispatchJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "dispatch.json"), data)
}

var _ ports.DebugSink = (*Sink)(nil)
