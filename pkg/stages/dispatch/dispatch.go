// Package dispatch implements the result dispatch stage.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
)

// PlaceholderNotice prefixes the notice attached to placeholder results.
const PlaceholderNotice = "Demo mode: connect to your model server for real predictions"

// TracerName names the tracer taken from the global provider.
const TracerName = "github.com/user/accidentscan/pkg/stages/dispatch"

// Stage sends the normalized tensor to the inference endpoint.
type Stage struct {
	client ports.InferenceClient
	sink   ports.DebugSink
	logger ports.Logger

	// Random returns values in [0, 1) for placeholder results.
	Random func() float64
	// Now stamps results.
	Now func() time.Time
	// Tracer records one span per predict call.
	Tracer trace.Tracer
}

// NewStage creates a new dispatch stage.
func NewStage(client ports.InferenceClient, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		client: client,
		sink:   sink,
		logger: logger.WithComponent("dispatch"),
		Random: rand.Float64,
		Now:    time.Now,
		Tracer: otel.Tracer(TracerName),
	}
}

// requestInfo is what the debug sink records about a request.
type requestInfo struct {
	Shape       []int  `json:"shape"`
	FrameValues int    `json:"frame_values"`
	Outcome     string `json:"outcome"`
	Error       string `json:"error,omitempty"`
}

// Execute classifies the tensor. Endpoint failures never surface as errors:
// they produce a placeholder result instead. Only a frame count mismatch fails.
func (s *Stage) Execute(ctx context.Context, input pipeline.DispatchInput) (pipeline.DetectionResult, error) {
	n := len(input.Tensor.Frames)
	if n != input.Expected || n == 0 {
		return pipeline.DetectionResult{}, fmt.Errorf("%w: got %d, want %d",
			pipeline.ErrFrameCountMismatch, n, input.Expected)
	}

	w, h := input.Tensor.Width, input.Tensor.Height
	if w <= 0 || h <= 0 {
		w, h = pipeline.FrameWidth, pipeline.FrameHeight
	}
	want := pipeline.FrameValues(w, h)
	for _, f := range input.Tensor.Frames {
		if len(f.Data) != want {
			return pipeline.DetectionResult{}, fmt.Errorf("%w: frame %d has %d values, want %d",
				pipeline.ErrFrameCountMismatch, f.Index, len(f.Data), want)
		}
	}

	req := ports.PredictRequest{
		Frames: input.Tensor.Tensor(),
		Shape:  []int{1, n, pipeline.Channels, h, w},
	}

	ctx, span := s.Tracer.Start(ctx, "dispatch.predict")
	defer span.End()
	span.SetAttributes(attribute.Int("frames", n), attribute.IntSlice("shape", req.Shape))

	s.logger.Debug("Sending %d frames, shape %v", n, req.Shape)
	resp, err := s.client.Predict(ctx, req)
	if err == nil {
		err = validate(resp)
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", pipeline.ErrDispatchFailure, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "placeholder result")
		span.SetAttributes(attribute.Bool("placeholder", true))
		s.record(req, "placeholder", err)
		return s.placeholder(err, resp), nil
	}

	confidence := math.Max(resp.Confidence[0], resp.Confidence[1])
	result := pipeline.DetectionResult{
		AccidentDetected: *resp.PredictedClass == 1,
		Confidence:       confidence,
		Timestamp:        s.Now(),
		Raw:              resp,
	}
	span.SetAttributes(attribute.Bool("accident", result.AccidentDetected), attribute.Float64("confidence", confidence))
	s.record(req, "success", nil)
	s.logger.Debug("Prediction: %s (%.3f)", result.Label(), confidence)
	return result, nil
}

// validate checks the response is a two-class verdict.
func validate(resp *ports.PredictResponse) error {
	if resp == nil {
		return errors.New("empty response")
	}
	if resp.Status == "error" {
		return fmt.Errorf("endpoint error: %s", resp.Message)
	}
	if resp.PredictedClass == nil {
		return errors.New("missing predicted_class")
	}
	if c := *resp.PredictedClass; c != 0 && c != 1 {
		return fmt.Errorf("unexpected predicted_class %d", c)
	}
	if len(resp.Confidence) != 2 {
		return fmt.Errorf("expected 2 confidence values, got %d", len(resp.Confidence))
	}
	for _, p := range resp.Confidence {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("confidence out of range: %v", p)
		}
	}
	return nil
}

// placeholder builds a labeled random result after a failed dispatch.
func (s *Stage) placeholder(cause error, resp *ports.PredictResponse) pipeline.DetectionResult {
	notice := fmt.Sprintf("%s (%v)", PlaceholderNotice, cause)
	s.logger.Warn("%s", notice)

	return pipeline.DetectionResult{
		AccidentDetected: s.Random() > 0.6,
		Confidence:       s.Random()*0.3 + 0.7,
		Timestamp:        s.Now(),
		Placeholder:      true,
		Notice:           notice,
		Raw:              resp,
	}
}

func (s *Stage) record(req ports.PredictRequest, outcome string, err error) {
	if !s.sink.Enabled() {
		return
	}
	info := requestInfo{Shape: req.Shape, Outcome: outcome}
	if len(req.Frames) > 0 {
		info.FrameValues = len(req.Frames[0])
	}
	if err != nil {
		info.Error = err.Error()
	}
	if data, mErr := json.MarshalIndent(info, "", "  "); mErr == nil {
		s.sink.SaveDispatchJSON(data)
	}
}
