// Package orchestrator coordinates the sampling, normalization, dispatch and
// export stages for one video session at a time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/accidentscan/pkg/contactsheet"
	"github.com/user/accidentscan/pkg/metrics"
	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
	"github.com/user/accidentscan/pkg/session"
)

// ErrFrameIndex is returned when a frame outside the collection is requested.
var ErrFrameIndex = errors.New("orchestrator: frame index out of range")

// Config contains all configuration for the orchestrator.
type Config struct {
	// Sampling
	FrameCount  int
	Width       int
	Height      int
	SeekTimeout time.Duration

	// Normalization
	Mean [3]float64
	Std  [3]float64

	// Display
	Quality      int // JPEG quality for frame thumbnails
	ContactSheet contactsheet.Options

	// Export
	ExportPath string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		FrameCount:   pipeline.DefaultFrameCount,
		Width:        pipeline.FrameWidth,
		Height:       pipeline.FrameHeight,
		SeekTimeout:  10 * time.Second,
		Mean:         pipeline.DefaultMean,
		Std:          pipeline.DefaultStd,
		Quality:      pipeline.DefaultJPEGQuality,
		ContactSheet: contactsheet.DefaultOptions(),
		ExportPath:   "extracted_frames.json",
	}
}

// Stages groups the pipeline stages the orchestrator drives.
type Stages struct {
	Sample    pipeline.Stage[pipeline.SampleInput, pipeline.SampleResult]
	Normalize pipeline.Stage[pipeline.NormalizeInput, pipeline.NormalizeResult]
	Dispatch  pipeline.Stage[pipeline.DispatchInput, pipeline.DetectionResult]
	Export    pipeline.Stage[pipeline.ExportInput, pipeline.ExportResult]
}

// Orchestrator owns the session state and runs stages against it.
// It is safe for concurrent use.
type Orchestrator struct {
	opener   ports.SourceOpener
	stages   Stages
	renderer ports.Renderer
	fs       ports.FileSystem
	sink     ports.DebugSink
	logger   ports.Logger
	config   Config
	tracker  *session.Tracker

	// mu serializes extraction start and abandonment.
	mu      sync.Mutex
	cancel  context.CancelFunc
	running chan struct{}
}

// New creates a new Orchestrator.
func New(
	opener ports.SourceOpener,
	stages Stages,
	renderer ports.Renderer,
	fs ports.FileSystem,
	sink ports.DebugSink,
	logger ports.Logger,
	config Config,
) *Orchestrator {
	if config.FrameCount <= 0 {
		config.FrameCount = pipeline.DefaultFrameCount
	}
	return &Orchestrator{
		opener:   opener,
		stages:   stages,
		renderer: renderer,
		fs:       fs,
		sink:     sink,
		logger:   logger,
		config:   config,
		tracker:  session.NewTracker(config.FrameCount),
	}
}

// State returns a snapshot of the session.
func (o *Orchestrator) State() session.State {
	return o.tracker.Snapshot()
}

// Select makes path the session's video. Non-video files are rejected with
// ErrInvalidInputFile and leave the session untouched. Any running extraction
// is abandoned.
func (o *Orchestrator) Select(path string) (session.State, error) {
	if err := checkVideo(o.fs, path); err != nil {
		o.logger.Error("Invalid input: %v", err)
		return o.tracker.Snapshot(), err
	}

	o.mu.Lock()
	o.abandonLocked()
	st := o.tracker.SelectFile(path)
	o.mu.Unlock()

	o.logger.Info("Selected %s", path)
	return st, nil
}

// Reset clears the session and abandons any running extraction.
func (o *Orchestrator) Reset() session.State {
	o.mu.Lock()
	o.abandonLocked()
	st := o.tracker.Reset()
	o.mu.Unlock()

	o.logger.Info("Session reset")
	return st
}

func (o *Orchestrator) abandonLocked() {
	if o.cancel != nil {
		o.cancel()
	}
}

// extraction is one background sampling run.
type extraction struct {
	ctx    context.Context
	cancel context.CancelFunc
	tok    session.Token
	path   string
	prev   chan struct{} // closed when the previous run has returned
	done   chan struct{}
}

func (o *Orchestrator) beginExtraction(ctx context.Context) (*extraction, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	tok, path, err := o.tracker.BeginExtraction()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &extraction{
		ctx:    runCtx,
		cancel: cancel,
		tok:    tok,
		path:   path,
		prev:   o.running,
		done:   make(chan struct{}),
	}
	o.cancel = cancel
	o.running = run.done
	return run, nil
}

func (o *Orchestrator) finishExtraction(run *extraction) {
	run.cancel()
	close(run.done)

	o.mu.Lock()
	if o.running == run.done {
		o.cancel = nil
		o.running = nil
	}
	o.mu.Unlock()
}

// Extract samples the selected video and blocks until the collection is
// installed. A run superseded by a new selection returns ErrStaleGeneration
// or the cancellation error, and its frames are discarded.
func (o *Orchestrator) Extract(ctx context.Context) (pipeline.SampleResult, error) {
	run, err := o.beginExtraction(ctx)
	if err != nil {
		return pipeline.SampleResult{}, err
	}
	return o.runExtraction(run)
}

// StartExtract begins extraction in the background. Start-up errors such as
// ErrExtractionInProgress are returned directly. The channel receives the
// outcome of the run.
func (o *Orchestrator) StartExtract(ctx context.Context) (<-chan error, error) {
	run, err := o.beginExtraction(ctx)
	if err != nil {
		return nil, err
	}

	errc := make(chan error, 1)
	go func() {
		_, err := o.runExtraction(run)
		errc <- err
	}()
	return errc, nil
}

func (o *Orchestrator) runExtraction(run *extraction) (pipeline.SampleResult, error) {
	defer o.finishExtraction(run)

	// The sampler allows one run at a time, so wait for an abandoned one to unwind.
	if run.prev != nil {
		select {
		case <-run.prev:
		case <-run.ctx.Done():
			o.tracker.FailExtraction(run.tok, run.ctx.Err())
			return pipeline.SampleResult{}, run.ctx.Err()
		}
	}

	o.logger.Info("Extracting %d frames from %s", o.config.FrameCount, run.path)
	start := time.Now()
	result, err := o.sample(run)
	elapsed := time.Since(start)

	if err == nil {
		err = o.tracker.CompleteExtraction(run.tok, result.Frames)
	} else {
		o.tracker.FailExtraction(run.tok, err)
	}
	metrics.ExtractionsTotal.WithLabelValues(metrics.Status(err)).Inc()

	if err != nil {
		if errors.Is(err, pipeline.ErrStaleGeneration) || errors.Is(err, context.Canceled) {
			o.logger.Debug("Discarded extraction of %s: %v", run.path, err)
		} else {
			o.logger.Error("Extraction failed: %v", err)
		}
		return pipeline.SampleResult{}, err
	}

	metrics.ExtractionDuration.Observe(elapsed.Seconds())
	metrics.FramesSampledTotal.Add(float64(len(result.Frames)))
	o.logger.Info("Extracted %d frames in %d ms", len(result.Frames), elapsed.Milliseconds())

	if o.sink.Enabled() {
		if sheet := contactsheet.Render(o.renderer, result.Frames, o.config.ContactSheet); sheet != nil {
			o.sink.SaveContactSheet(sheet)
		}
	}
	return result, nil
}

func (o *Orchestrator) sample(run *extraction) (pipeline.SampleResult, error) {
	src, err := o.opener.Open(run.path)
	if err != nil {
		return pipeline.SampleResult{}, fmt.Errorf("%w: %v", pipeline.ErrUnseekableSource, err)
	}
	defer src.Close()

	input := pipeline.SampleInput{
		Source:      src,
		Count:       o.config.FrameCount,
		Width:       o.config.Width,
		Height:      o.config.Height,
		SeekTimeout: o.config.SeekTimeout,
		OnProgress: func(percent int) {
			o.tracker.ReportProgress(run.tok, percent)
			o.logger.Debug("Extraction progress: %d%%", percent)
		},
	}
	return o.stages.Sample.Execute(run.ctx, input)
}

// frames returns the complete collection or the reason it is unavailable.
func (o *Orchestrator) frames() ([]pipeline.SampledFrame, error) {
	st := o.tracker.Snapshot()
	if st.VideoPath == "" {
		return nil, pipeline.ErrNoVideo
	}
	if !st.HasFrames() {
		return nil, pipeline.ErrNotExtracted
	}
	return st.Frames, nil
}

func (o *Orchestrator) normalize(ctx context.Context, frames []pipeline.SampledFrame) (pipeline.NormalizeResult, error) {
	return o.stages.Normalize.Execute(ctx, pipeline.NormalizeInput{
		Frames:   frames,
		Expected: o.config.FrameCount,
		Mean:     o.config.Mean,
		Std:      o.config.Std,
		Quality:  o.config.Quality,
	})
}

// Predict classifies the extracted frames. Endpoint failures yield a
// placeholder result, not an error.
func (o *Orchestrator) Predict(ctx context.Context) (pipeline.DetectionResult, error) {
	tok, frames, err := o.tracker.BeginPrediction()
	if err != nil {
		return pipeline.DetectionResult{}, err
	}

	o.logger.Info("Classifying %d frames", len(frames))
	result, err := o.predict(ctx, frames)
	if err != nil {
		o.tracker.FailPrediction(tok, err)
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
		o.logger.Error("Prediction failed: %v", err)
		return pipeline.DetectionResult{}, err
	}
	if err := o.tracker.CompletePrediction(tok, result); err != nil {
		return pipeline.DetectionResult{}, err
	}

	if result.Placeholder {
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomePlaceholder).Inc()
	} else {
		metrics.PredictionsTotal.WithLabelValues(metrics.OutcomeModel).Inc()
	}
	if result.AccidentDetected {
		metrics.AccidentsDetectedTotal.Inc()
	}
	o.logger.Info("Result: %s (confidence %.1f%%)", result.Label(), result.Confidence*100)
	return result, nil
}

func (o *Orchestrator) predict(ctx context.Context, frames []pipeline.SampledFrame) (pipeline.DetectionResult, error) {
	tensor, err := o.normalize(ctx, frames)
	if err != nil {
		return pipeline.DetectionResult{}, fmt.Errorf("normalize stage: %w", err)
	}
	result, err := o.stages.Dispatch.Execute(ctx, pipeline.DispatchInput{
		Tensor:   tensor,
		Expected: o.config.FrameCount,
	})
	if err != nil {
		return pipeline.DetectionResult{}, fmt.Errorf("dispatch stage: %w", err)
	}
	return result, nil
}

// ExportDocument builds the export document from the extracted frames.
func (o *Orchestrator) ExportDocument(ctx context.Context) (pipeline.ExportResult, error) {
	frames, err := o.frames()
	if err != nil {
		return pipeline.ExportResult{}, err
	}
	tensor, err := o.normalize(ctx, frames)
	if err != nil {
		return pipeline.ExportResult{}, fmt.Errorf("normalize stage: %w", err)
	}
	return o.stages.Export.Execute(ctx, pipeline.ExportInput{
		Tensor:   tensor,
		Expected: o.config.FrameCount,
	})
}

// Export writes the export document to path, or to the configured default
// when path is empty. It returns the path written.
func (o *Orchestrator) Export(ctx context.Context, path string) (string, pipeline.ExportResult, error) {
	if path == "" {
		path = o.config.ExportPath
	}

	res, err := o.ExportDocument(ctx)
	if err == nil {
		err = o.fs.WriteFile(path, res.JSON)
		if err != nil {
			err = fmt.Errorf("write export: %w", err)
		}
	}
	metrics.ExportsTotal.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		o.logger.Error("Export failed: %v", err)
		return "", pipeline.ExportResult{}, err
	}

	o.logger.Info("Exported %d frames to %s", res.Document.NumFrames, path)
	return path, res, nil
}

// FrameJPEG encodes one extracted frame for display.
func (o *Orchestrator) FrameJPEG(index int) ([]byte, error) {
	frames, err := o.frames()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(frames) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrFrameIndex, index, len(frames))
	}
	return o.renderer.EncodeImage(frames[index].Pixels, ports.FormatJPEG, o.config.Quality)
}

// ContactSheet renders all extracted frames as a labeled PNG grid.
func (o *Orchestrator) ContactSheet() ([]byte, error) {
	frames, err := o.frames()
	if err != nil {
		return nil, err
	}
	return o.renderer.EncodeImage(contactsheet.Render(o.renderer, frames, o.config.ContactSheet), ports.FormatPNG, 0)
}

// RunConfig selects what a one-shot Run does after extraction.
type RunConfig struct {
	VideoPath  string
	Export     bool
	ExportPath string
	Predict    bool
}

// Run executes select, extract and the requested follow-up steps for one video.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (RunResult, error) {
	runID := uuid.NewString()
	o.logger.Debug("Run %s started", runID)

	if _, err := o.Select(cfg.VideoPath); err != nil {
		return RunResult{}, err
	}

	start := time.Now()
	sampled, err := o.Extract(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("sample stage: %w", err)
	}

	result := RunResult{
		RunID:        runID,
		VideoPath:    cfg.VideoPath,
		Video:        sampled.Video,
		FrameCount:   len(sampled.Frames),
		FrameWidth:   o.config.Width,
		FrameHeight:  o.config.Height,
		Mean:         o.config.Mean,
		Std:          o.config.Std,
		ExtractionMs: time.Since(start).Milliseconds(),
	}

	if cfg.Export {
		path, exported, err := o.Export(ctx, cfg.ExportPath)
		if err != nil {
			return result, err
		}
		result.ExportPath = path
		result.ExportBytes = len(exported.JSON)
	}

	if cfg.Predict {
		detection, err := o.Predict(ctx)
		if err != nil {
			return result, err
		}
		result.Detection = &detection
	}

	o.logger.Debug("Run %s completed", runID)
	return result, nil
}

// RunResult contains the results of a Run for summary generation.
type RunResult struct {
	RunID     string
	VideoPath string
	Video     ports.VideoInfo

	// Frames
	FrameCount   int
	FrameWidth   int
	FrameHeight  int
	Mean         [3]float64
	Std          [3]float64
	ExtractionMs int64

	// Export (when requested)
	ExportPath  string
	ExportBytes int

	// Detection (when requested)
	Detection *pipeline.DetectionResult
}
