package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/user/accidentscan/pkg/adapters/logger"
	"github.com/user/accidentscan/pkg/mocks"
	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
)

func tensor(n, w, h int) pipeline.NormalizeResult {
	frames := make([]pipeline.NormalizedFrame, n)
	for i := range frames {
		frames[i] = pipeline.NormalizedFrame{Index: i, Data: make([]float32, pipeline.FrameValues(w, h))}
	}
	return pipeline.NormalizeResult{Frames: frames, Width: w, Height: h}
}

func class(c int) *int { return &c }

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newStage(client ports.InferenceClient, sink ports.DebugSink) *Stage {
	s := NewStage(client, sink, logger.NewNoop())
	s.Now = func() time.Time { return fixedNow }
	return s
}

func TestStage_Execute_Success(t *testing.T) {
	client := &mocks.InferenceClient{
		PredictFunc: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
			return &ports.PredictResponse{PredictedClass: class(1), Confidence: []float64{0.1, 0.9}, Status: "success"}, nil
		},
	}
	stage := newStage(client, mocks.NewDebugSink(false))

	result, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: tensor(60, 8, 8), Expected: 60})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.AccidentDetected {
		t.Error("expected accident detected")
	}
	if result.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", result.Confidence)
	}
	if result.Placeholder {
		t.Error("expected real result")
	}
	if !result.Timestamp.Equal(fixedNow) {
		t.Errorf("unexpected timestamp %v", result.Timestamp)
	}
	if result.Raw == nil || result.Raw.Status != "success" {
		t.Error("expected raw response to be kept")
	}

	reqs := client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	wantShape := []int{1, 60, 3, 8, 8}
	for i, v := range wantShape {
		if reqs[0].Shape[i] != v {
			t.Errorf("shape[%d]: expected %d, got %d", i, v, reqs[0].Shape[i])
		}
	}
	if len(reqs[0].Frames) != 60 || len(reqs[0].Frames[0]) != 192 {
		t.Error("unexpected request frames")
	}
}

func TestStage_Execute_NoAccident(t *testing.T) {
	stage := newStage(&mocks.InferenceClient{}, mocks.NewDebugSink(false))

	result, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: tensor(2, 4, 4), Expected: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AccidentDetected || result.Confidence != 0.8 {
		t.Errorf("expected no accident at 0.8, got %v at %v", result.AccidentDetected, result.Confidence)
	}
}

func TestStage_Execute_Placeholder(t *testing.T) {
	tests := []struct {
		name string
		fn   func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error)
	}{
		{
			name: "unreachable",
			fn: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "endpoint error",
			fn: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
				return &ports.PredictResponse{Status: "error", Message: "model not loaded"}, nil
			},
		},
		{
			name: "missing class",
			fn: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
				return &ports.PredictResponse{Confidence: []float64{0.5, 0.5}}, nil
			},
		},
		{
			name: "bad class",
			fn: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
				return &ports.PredictResponse{PredictedClass: class(2), Confidence: []float64{0.5, 0.5}}, nil
			},
		},
		{
			name: "wrong confidence length",
			fn: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
				return &ports.PredictResponse{PredictedClass: class(0), Confidence: []float64{1}}, nil
			},
		},
		{
			name: "nil response",
			fn: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
				return nil, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := newStage(&mocks.InferenceClient{PredictFunc: tt.fn}, mocks.NewDebugSink(false))

			result, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: tensor(3, 4, 4), Expected: 3})
			if err != nil {
				t.Fatalf("dispatch failures must not surface: %v", err)
			}
			if !result.Placeholder {
				t.Error("expected placeholder result")
			}
			if result.Confidence < 0.7 || result.Confidence >= 1.0 {
				t.Errorf("placeholder confidence %v out of [0.7, 1.0)", result.Confidence)
			}
			if !strings.HasPrefix(result.Notice, PlaceholderNotice) {
				t.Errorf("unexpected notice %q", result.Notice)
			}
			if !strings.Contains(result.Notice, pipeline.ErrDispatchFailure.Error()) {
				t.Errorf("notice should carry the dispatch failure: %q", result.Notice)
			}
		})
	}
}

func TestStage_Execute_PlaceholderRandom(t *testing.T) {
	client := &mocks.InferenceClient{
		PredictFunc: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
			return nil, errors.New("down")
		},
	}

	tests := []struct {
		draws      []float64
		accident   bool
		confidence float64
	}{
		{[]float64{0.61, 0.0}, true, 0.7},
		{[]float64{0.6, 0.5}, false, 0.85},
		{[]float64{0.0, 0.999}, false, 0.9997},
	}

	for _, tt := range tests {
		draws := tt.draws
		stage := newStage(client, mocks.NewDebugSink(false))
		stage.Random = func() float64 {
			v := draws[0]
			draws = draws[1:]
			return v
		}

		result, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: tensor(1, 2, 2), Expected: 1})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.AccidentDetected != tt.accident {
			t.Errorf("draws %v: expected accident=%v", tt.draws, tt.accident)
		}
		if diff := result.Confidence - tt.confidence; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("draws %v: expected confidence %v, got %v", tt.draws, tt.confidence, result.Confidence)
		}
	}
}

func TestStage_Execute_FrameCountMismatch(t *testing.T) {
	client := &mocks.InferenceClient{}
	stage := newStage(client, mocks.NewDebugSink(false))

	for _, n := range []int{0, 59} {
		_, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: tensor(n, 4, 4), Expected: 60})
		if !errors.Is(err, pipeline.ErrFrameCountMismatch) {
			t.Errorf("%d frames: expected ErrFrameCountMismatch, got %v", n, err)
		}
	}

	bad := tensor(2, 4, 4)
	bad.Frames[1].Data = bad.Frames[1].Data[:10]
	if _, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: bad, Expected: 2}); !errors.Is(err, pipeline.ErrFrameCountMismatch) {
		t.Errorf("short frame: expected ErrFrameCountMismatch, got %v", err)
	}

	if len(client.Requests()) != 0 {
		t.Error("no request may be sent for a rejected collection")
	}
}

func TestStage_Execute_DebugSink(t *testing.T) {
	sink := mocks.NewDebugSink(true)
	stage := newStage(&mocks.InferenceClient{}, sink)

	if _, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: tensor(2, 4, 4), Expected: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var info struct {
		Shape       []int  `json:"shape"`
		FrameValues int    `json:"frame_values"`
		Outcome     string `json:"outcome"`
	}
	if err := json.Unmarshal(sink.DispatchJSON, &info); err != nil {
		t.Fatalf("invalid dispatch JSON: %v", err)
	}
	if info.Outcome != "success" || info.FrameValues != 48 || len(info.Shape) != 5 {
		t.Errorf("unexpected dispatch record %+v", info)
	}
}

func tracedStage(client ports.InferenceClient) (*Stage, *tracetest.InMemoryExporter) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	s := newStage(client, mocks.NewDebugSink(false))
	s.Tracer = tp.Tracer(TracerName)
	return s, exp
}

func spanAttrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestStage_Execute_TracesSuccess(t *testing.T) {
	client := &mocks.InferenceClient{
		PredictFunc: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
			if !trace.SpanContextFromContext(ctx).IsValid() {
				t.Error("expected the predict call to run inside the span")
			}
			return &ports.PredictResponse{PredictedClass: class(1), Confidence: []float64{0.2, 0.8}, Status: "success"}, nil
		},
	}
	stage, exp := tracedStage(client)

	if _, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: tensor(4, 8, 8), Expected: 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "dispatch.predict" {
		t.Errorf("unexpected span name %q", span.Name)
	}
	if span.Status.Code == codes.Error {
		t.Error("expected a non-error status")
	}
	attrs := spanAttrs(span)
	if attrs["frames"].AsInt64() != 4 {
		t.Errorf("unexpected frames attribute %v", attrs["frames"])
	}
	if got := attrs["shape"].AsInt64Slice(); len(got) != 5 || got[1] != 4 || got[4] != 8 {
		t.Errorf("unexpected shape attribute %v", got)
	}
	if !attrs["accident"].AsBool() || attrs["confidence"].AsFloat64() != 0.8 {
		t.Errorf("unexpected verdict attributes %v %v", attrs["accident"], attrs["confidence"])
	}
	if _, ok := attrs["placeholder"]; ok {
		t.Error("real result must not be marked placeholder")
	}
}

func TestStage_Execute_TracesPlaceholder(t *testing.T) {
	client := &mocks.InferenceClient{
		PredictFunc: func(ctx context.Context, req ports.PredictRequest) (*ports.PredictResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	stage, exp := tracedStage(client)

	result, err := stage.Execute(context.Background(), pipeline.DispatchInput{Tensor: tensor(2, 8, 8), Expected: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Placeholder {
		t.Fatal("expected a placeholder result")
	}

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Status.Code != codes.Error || span.Status.Description != "placeholder result" {
		t.Errorf("unexpected status %+v", span.Status)
	}
	if !spanAttrs(span)["placeholder"].AsBool() {
		t.Error("expected placeholder attribute")
	}
	var recorded bool
	for _, ev := range span.Events {
		if ev.Name == "exception" {
			recorded = true
		}
	}
	if !recorded {
		t.Error("expected the dispatch failure recorded as an exception event")
	}
}
