package session

import (
	"sync"

	"github.com/user/accidentscan/pkg/pipeline"
)

// Tracker holds a State for concurrent callers.
type Tracker struct {
	mu    sync.Mutex
	state State
}

// NewTracker creates a tracker expecting n frames per extraction.
func NewTracker(n int) *Tracker {
	return &Tracker{state: New(n)}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) apply(fn func(State) State) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = fn(t.state)
	return t.state
}

func (t *Tracker) applyErr(fn func(State) (State, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	next, err := fn(t.state)
	t.state = next
	return err
}

// SelectFile starts a new generation for path.
func (t *Tracker) SelectFile(path string) State {
	return t.apply(func(s State) State { return SelectFile(s, path) })
}

// BeginExtraction starts extraction and returns its token.
func (t *Tracker) BeginExtraction() (Token, string, error) {
	var tok Token
	var path string
	err := t.applyErr(func(s State) (State, error) {
		next, tk, err := BeginExtraction(s)
		tok, path = tk, next.VideoPath
		return next, err
	})
	return tok, path, err
}

// ReportProgress records extraction progress for tok.
func (t *Tracker) ReportProgress(tok Token, percent int) {
	t.apply(func(s State) State { return ReportProgress(s, tok, percent) })
}

// CompleteExtraction installs frames produced under tok.
func (t *Tracker) CompleteExtraction(tok Token, frames []pipeline.SampledFrame) error {
	return t.applyErr(func(s State) (State, error) { return CompleteExtraction(s, tok, frames) })
}

// FailExtraction records a failed extraction for tok.
func (t *Tracker) FailExtraction(tok Token, err error) {
	t.apply(func(s State) State { return FailExtraction(s, tok, err) })
}

// BeginPrediction starts prediction and returns its token with the frames to classify.
func (t *Tracker) BeginPrediction() (Token, []pipeline.SampledFrame, error) {
	var tok Token
	var frames []pipeline.SampledFrame
	err := t.applyErr(func(s State) (State, error) {
		next, tk, err := BeginPrediction(s)
		tok, frames = tk, next.Frames
		return next, err
	})
	return tok, frames, err
}

// CompletePrediction stores the result produced under tok.
func (t *Tracker) CompletePrediction(tok Token, result pipeline.DetectionResult) error {
	return t.applyErr(func(s State) (State, error) { return CompletePrediction(s, tok, result) })
}

// FailPrediction records a failed prediction for tok.
func (t *Tracker) FailPrediction(tok Token, err error) {
	t.apply(func(s State) State { return FailPrediction(s, tok, err) })
}

// Reset clears the session.
func (t *Tracker) Reset() State {
	return t.apply(Reset)
}
