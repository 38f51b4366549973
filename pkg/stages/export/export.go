// Package export builds the JSON document of normalized frames.
package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
)

// DefaultFilename is the name offered for downloaded exports.
const DefaultFilename = "extracted_frames.json"

// Stage serializes a normalized tensor.
type Stage struct {
	sink   ports.DebugSink
	logger ports.Logger
}

// NewStage creates a new export stage.
func NewStage(sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		sink:   sink,
		logger: logger.WithComponent("export"),
	}
}

// BuildDocument lays out the tensor as an ExportDocument.
func BuildDocument(tensor pipeline.NormalizeResult) pipeline.ExportDocument {
	n := len(tensor.Frames)
	doc := pipeline.ExportDocument{
		NumFrames: n,
		Shape:     []int{n, pipeline.Channels, tensor.Height, tensor.Width},
		Frames:    make([]pipeline.ExportFrame, n),
	}
	for i, f := range tensor.Frames {
		doc.Frames[i] = pipeline.ExportFrame{FrameNumber: f.Index, Data: f.Data}
	}
	return doc
}

// Execute builds and pretty-prints the export document.
func (s *Stage) Execute(ctx context.Context, input pipeline.ExportInput) (pipeline.ExportResult, error) {
	if n := len(input.Tensor.Frames); n != input.Expected || n == 0 {
		return pipeline.ExportResult{}, fmt.Errorf("%w: got %d, want %d",
			pipeline.ErrFrameCountMismatch, n, input.Expected)
	}
	if err := ctx.Err(); err != nil {
		return pipeline.ExportResult{}, err
	}

	doc := BuildDocument(input.Tensor)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return pipeline.ExportResult{}, fmt.Errorf("marshal export: %w", err)
	}

	if s.sink.Enabled() {
		s.sink.SaveExportJSON(data)
	}

	s.logger.Debug("Exported %d frames (%d bytes)", doc.NumFrames, len(data))
	return pipeline.ExportResult{Document: doc, JSON: data}, nil
}
