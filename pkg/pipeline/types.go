package pipeline

import (
	"image"
	"time"

	"github.com/user/accidentscan/pkg/ports"
)

// Canonical model input geometry.
const (
	FrameWidth         = 224
	FrameHeight        = 224
	Channels           = 3
	DefaultFrameCount  = 60
	DefaultJPEGQuality = 95
)

// ImageNet statistics used by the classifier's training preprocessing.
var (
	DefaultMean = [3]float64{0.485, 0.456, 0.406}
	DefaultStd  = [3]float64{0.229, 0.224, 0.225}
)

// FrameValues returns the number of floats in one normalized frame.
func FrameValues(width, height int) int {
	return Channels * width * height
}

// =============================================================================
// Sample Stage Types
// =============================================================================

// SampleInput contains parameters for frame sampling.
type SampleInput struct {
	Source      ports.RasterSource
	Count       int           // Number of frames to sample (default: 60)
	Width       int           // Output frame width (default: 224)
	Height      int           // Output frame height (default: 224)
	SeekTimeout time.Duration // Bound on a single seek-and-capture (0 = unbounded)
	OnProgress  func(percent int)
}

// DefaultSampleInput returns SampleInput with default values.
func DefaultSampleInput() SampleInput {
	return SampleInput{
		Count:       DefaultFrameCount,
		Width:       FrameWidth,
		Height:      FrameHeight,
		SeekTimeout: 10 * time.Second,
	}
}

// SampleResult contains the sampled frame collection.
type SampleResult struct {
	Frames []SampledFrame
	Video  ports.VideoInfo
}

// SampledFrame is one immutable raster snapshot.
type SampledFrame struct {
	Index        int         // 0-based, matches extraction order
	TimestampSec float64     // Seek position the frame was captured at
	Pixels       *image.RGBA // Exactly Width x Height
}

// =============================================================================
// Normalize Stage Types
// =============================================================================

// NormalizeInput contains parameters for frame normalization.
type NormalizeInput struct {
	Frames   []SampledFrame
	Expected int        // Required collection length
	Mean     [3]float64 // Per-channel mean (RGB)
	Std      [3]float64 // Per-channel standard deviation (RGB)
	Encode   bool       // Also produce JPEG bytes per frame
	Quality  int        // JPEG quality (default: 95)
}

// DefaultNormalizeInput returns NormalizeInput with default values.
func DefaultNormalizeInput() NormalizeInput {
	return NormalizeInput{
		Expected: DefaultFrameCount,
		Mean:     DefaultMean,
		Std:      DefaultStd,
		Quality:  DefaultJPEGQuality,
	}
}

// NormalizeResult contains the normalized tensor, one entry per frame.
type NormalizeResult struct {
	Frames []NormalizedFrame
	Width  int
	Height int
}

// NormalizedFrame holds the channel-interleaved values of one frame.
type NormalizedFrame struct {
	Index int
	Data  []float32 // len == 3*Width*Height, RGB interleaved per pixel
	JPEG  []byte    // Only set when NormalizeInput.Encode is true
}

// Tensor returns the per-frame data slices in index order.
func (r NormalizeResult) Tensor() [][]float32 {
	out := make([][]float32, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.Data
	}
	return out
}

// =============================================================================
// Dispatch Stage Types
// =============================================================================

// DispatchInput contains the normalized tensor to classify.
type DispatchInput struct {
	Tensor   NormalizeResult
	Expected int
}

// DetectionResult is the verdict for one video.
type DetectionResult struct {
	AccidentDetected bool                   `json:"accident_detected" yaml:"accident_detected"`
	Confidence       float64                `json:"confidence" yaml:"confidence"`
	Timestamp        time.Time              `json:"timestamp" yaml:"timestamp"`
	Placeholder      bool                   `json:"demo_mode,omitempty" yaml:"placeholder,omitempty"`
	Notice           string                 `json:"notice,omitempty" yaml:"notice,omitempty"`
	Raw              *ports.PredictResponse `json:"raw_output,omitempty" yaml:"-"`
}

// Label returns the human-readable class name.
func (r DetectionResult) Label() string {
	if r.AccidentDetected {
		return "accident"
	}
	return "no accident"
}

// =============================================================================
// Export Stage Types
// =============================================================================

// ExportInput contains the normalized frames to export.
type ExportInput struct {
	Tensor   NormalizeResult
	Expected int
}

// ExportDocument is the on-disk JSON layout of exported frames.
type ExportDocument struct {
	NumFrames int           `json:"num_frames"`
	Shape     []int         `json:"shape"`
	Frames    []ExportFrame `json:"frames"`
}

// ExportFrame is one frame in an ExportDocument.
type ExportFrame struct {
	FrameNumber int       `json:"frame_number"`
	Data        []float32 `json:"data"`
}

// ExportResult contains the serialized export document.
type ExportResult struct {
	Document ExportDocument
	JSON     []byte
}
