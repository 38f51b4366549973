// Package summarizer renders the outcome of a run as a readable report.
package summarizer

import (
	"time"

	"github.com/user/accidentscan/pkg/orchestrator"
	"github.com/user/accidentscan/pkg/pipeline"
)

// Summary contains everything reported about one analyzed video.
type Summary struct {
	GeneratedAt time.Time `yaml:"generated_at"`
	RunID       string    `yaml:"run_id,omitempty"`

	Video      VideoInfo      `yaml:"video"`
	Processing ProcessingInfo `yaml:"processing"`
	Detection  *DetectionInfo `yaml:"detection,omitempty"`
	Export     *ExportInfo    `yaml:"export,omitempty"`
}

// VideoInfo describes the input video.
type VideoInfo struct {
	Path        string  `yaml:"path"`
	DurationSec float64 `yaml:"duration_sec"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Codec       string  `yaml:"codec,omitempty"`
}

// ProcessingInfo lists how frames were prepared for the model.
type ProcessingInfo struct {
	FrameCount   int        `yaml:"frame_count"`
	FrameWidth   int        `yaml:"frame_width"`
	FrameHeight  int        `yaml:"frame_height"`
	ColorSpace   string     `yaml:"color_space"`
	Mean         [3]float64 `yaml:"mean"`
	Std          [3]float64 `yaml:"std"`
	InputShape   []int      `yaml:"input_shape"`
	ExtractionMs int64      `yaml:"extraction_ms"`
}

// DetectionInfo is the verdict.
type DetectionInfo struct {
	Label            string    `yaml:"label"`
	AccidentDetected bool      `yaml:"accident_detected"`
	Confidence       float64   `yaml:"confidence"`
	Placeholder      bool      `yaml:"placeholder"`
	Notice           string    `yaml:"notice,omitempty"`
	Timestamp        time.Time `yaml:"timestamp"`
}

// ExportInfo describes the written export document.
type ExportInfo struct {
	Path  string `yaml:"path"`
	Bytes int    `yaml:"bytes"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithRunID sets the run identifier.
func (b *Builder) WithRunID(id string) *Builder {
	b.summary.RunID = id
	return b
}

// WithVideo sets the input video details.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// WithProcessing sets the preprocessing details. The model input shape is
// derived when not given.
func (b *Builder) WithProcessing(p ProcessingInfo) *Builder {
	if p.ColorSpace == "" {
		p.ColorSpace = "RGB"
	}
	if p.InputShape == nil {
		p.InputShape = []int{1, p.FrameCount, pipeline.Channels, p.FrameHeight, p.FrameWidth}
	}
	b.summary.Processing = p
	return b
}

// WithDetection sets the verdict.
func (b *Builder) WithDetection(r pipeline.DetectionResult) *Builder {
	b.summary.Detection = &DetectionInfo{
		Label:            r.Label(),
		AccidentDetected: r.AccidentDetected,
		Confidence:       r.Confidence,
		Placeholder:      r.Placeholder,
		Notice:           r.Notice,
		Timestamp:        r.Timestamp,
	}
	return b
}

// WithExport records the export document location.
func (b *Builder) WithExport(path string, size int) *Builder {
	b.summary.Export = &ExportInfo{Path: path, Bytes: size}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

// FromRunResult summarizes an orchestrator run.
func FromRunResult(r orchestrator.RunResult) *Summary {
	b := NewBuilder().
		WithRunID(r.RunID).
		WithVideo(VideoInfo{
			Path:        r.VideoPath,
			DurationSec: r.Video.DurationSec,
			Width:       r.Video.Width,
			Height:      r.Video.Height,
			Codec:       r.Video.Codec,
		}).
		WithProcessing(ProcessingInfo{
			FrameCount:   r.FrameCount,
			FrameWidth:   r.FrameWidth,
			FrameHeight:  r.FrameHeight,
			Mean:         r.Mean,
			Std:          r.Std,
			ExtractionMs: r.ExtractionMs,
		})
	if r.Detection != nil {
		b.WithDetection(*r.Detection)
	}
	if r.ExportPath != "" {
		b.WithExport(r.ExportPath, r.ExportBytes)
	}
	return b.Build()
}
