// Package sample implements the frame sampling stage.
package sample

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"
	"time"

	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
)

// Stage samples a fixed number of evenly spaced frames from a video.
type Stage struct {
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
	quality  int
	running  atomic.Bool
}

// New creates a new sample stage.
func New(renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("sampler"),
		quality:  pipeline.DefaultJPEGQuality,
	}
}

// Timestamps returns the seek positions for count frames over duration seconds.
func Timestamps(duration float64, count int) []float64 {
	if count <= 0 {
		return nil
	}
	interval := duration / float64(count)
	ts := make([]float64, count)
	for i := range ts {
		ts[i] = float64(i) * interval
	}
	return ts
}

// Progress returns the rounded completion percentage after done of count samples.
func Progress(done, count int) int {
	return int(math.Round(100 * float64(done) / float64(count)))
}

// Execute samples input.Count frames. It fails as a whole: no partial
// collection is ever returned.
func (s *Stage) Execute(ctx context.Context, input pipeline.SampleInput) (pipeline.SampleResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return pipeline.SampleResult{}, pipeline.ErrExtractionInProgress
	}
	defer s.running.Store(false)

	if input.Count <= 0 {
		return pipeline.SampleResult{}, fmt.Errorf("%w: %d", pipeline.ErrInvalidFrameCount, input.Count)
	}
	if input.Source == nil {
		return pipeline.SampleResult{}, fmt.Errorf("%w: no source", pipeline.ErrUnseekableSource)
	}
	width, height := input.Width, input.Height
	if width <= 0 || height <= 0 {
		width, height = pipeline.FrameWidth, pipeline.FrameHeight
	}

	info, err := input.Source.Metadata(ctx)
	if err != nil {
		return pipeline.SampleResult{}, fmt.Errorf("%w: %v", pipeline.ErrUnseekableSource, err)
	}
	if info.DurationSec <= 0 || math.IsNaN(info.DurationSec) || math.IsInf(info.DurationSec, 0) {
		return pipeline.SampleResult{}, fmt.Errorf("%w: %v", pipeline.ErrInvalidDuration, info.DurationSec)
	}
	s.logger.Debug("Video loaded: %.2f s, %dx%d", info.DurationSec, info.Width, info.Height)

	timestamps := Timestamps(info.DurationSec, input.Count)
	frames := make([]pipeline.SampledFrame, 0, input.Count)

	for i, ts := range timestamps {
		if err := ctx.Err(); err != nil {
			return pipeline.SampleResult{}, err
		}

		img, err := s.capture(ctx, input.Source, ts, input.SeekTimeout)
		if err != nil {
			return pipeline.SampleResult{}, fmt.Errorf("sample frame %d at %.3fs: %w", i, ts, err)
		}

		frame := pipeline.SampledFrame{
			Index:        i,
			TimestampSec: ts,
			Pixels:       s.renderer.ResizeImage(img, width, height),
		}
		frames = append(frames, frame)

		if s.sink.Enabled() {
			if data, err := s.renderer.EncodeImage(frame.Pixels, ports.FormatJPEG, s.quality); err == nil {
				s.sink.SaveFrame(i, data)
			}
		}

		if input.OnProgress != nil {
			input.OnProgress(Progress(i+1, input.Count))
		}
	}

	s.logger.Debug("Sampled %d frames", len(frames))
	return pipeline.SampleResult{Frames: frames, Video: info}, nil
}

// captured carries the outcome of one seek-and-capture.
type captured struct {
	img image.Image
	err error
}

// capture performs one bounded seek-and-capture. Sources that ignore their
// context are still bounded by the select on the seek deadline.
func (s *Stage) capture(ctx context.Context, src ports.RasterSource, ts float64, timeout time.Duration) (image.Image, error) {
	seekCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		seekCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s.logger.Debug("Seeking to %.3f s", ts)
	done := make(chan captured, 1)
	go func() {
		img, err := src.SeekAndCapture(seekCtx, ts)
		done <- captured{img: img, err: err}
	}()

	var c captured
	select {
	case c = <-done:
	case <-seekCtx.Done():
		c.err = seekCtx.Err()
	}

	if c.err != nil {
		// Only the per-seek deadline maps to a timeout; a cancelled parent is returned as is.
		if ctx.Err() == nil && errors.Is(seekCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", pipeline.ErrSampleTimeout, timeout)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, c.err
	}
	if c.img == nil {
		return nil, fmt.Errorf("%w: empty capture", pipeline.ErrUnseekableSource)
	}
	return c.img, nil
}
