// Package session models the lifecycle of one analyzed video as an explicit
// state value with pure transition functions.
//
// Every file selection or reset starts a new generation. Work started under an
// older generation can still finish, but its results are discarded.
package session

import (
	"fmt"

	"github.com/user/accidentscan/pkg/pipeline"
)

// Phase is the coarse lifecycle position of a session.
type Phase int

const (
	Idle Phase = iota
	Extracting
	Extracted
	Predicting
	Done
)

var phaseNames = map[Phase]string{
	Idle:       "idle",
	Extracting: "extracting",
	Extracted:  "extracted",
	Predicting: "predicting",
	Done:       "done",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText renders the phase name in JSON and YAML.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Token identifies the generation a piece of background work belongs to.
type Token uint64

// State is an immutable snapshot of a session. Transitions return a new value.
type State struct {
	Phase      Phase
	VideoPath  string
	Generation Token
	Expected   int
	Frames     []pipeline.SampledFrame
	Progress   int
	Result     *pipeline.DetectionResult
	LastError  error
}

// New returns an idle state that expects n frames per extraction.
func New(n int) State {
	if n <= 0 {
		n = pipeline.DefaultFrameCount
	}
	return State{Phase: Idle, Expected: n}
}

// HasFrames reports whether a complete frame collection is present.
func (s State) HasFrames() bool {
	return len(s.Frames) == s.Expected && s.Expected > 0
}

// SelectFile starts a new generation for path and clears all derived data.
func SelectFile(s State, path string) State {
	return State{
		Phase:      Idle,
		VideoPath:  path,
		Generation: s.Generation + 1,
		Expected:   s.Expected,
	}
}

// BeginExtraction moves an idle session with a selected video to Extracting.
func BeginExtraction(s State) (State, Token, error) {
	if s.VideoPath == "" {
		return s, 0, pipeline.ErrNoVideo
	}
	switch s.Phase {
	case Idle:
	case Extracting:
		return s, 0, pipeline.ErrExtractionInProgress
	default:
		return s, 0, pipeline.ErrAlreadyExtracted
	}

	s.Phase = Extracting
	s.Frames = nil
	s.Progress = 0
	s.Result = nil
	s.LastError = nil
	return s, s.Generation, nil
}

// ReportProgress records extraction progress. Stale tokens are ignored.
func ReportProgress(s State, tok Token, percent int) State {
	if tok != s.Generation || s.Phase != Extracting {
		return s
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.Progress = percent
	return s
}

// CompleteExtraction installs the frame collection produced under tok.
func CompleteExtraction(s State, tok Token, frames []pipeline.SampledFrame) (State, error) {
	if tok != s.Generation || s.Phase != Extracting {
		return s, pipeline.ErrStaleGeneration
	}
	if len(frames) != s.Expected {
		err := fmt.Errorf("%w: got %d, want %d", pipeline.ErrFrameCountMismatch, len(frames), s.Expected)
		return FailExtraction(s, tok, err), err
	}

	s.Phase = Extracted
	s.Frames = frames
	s.Progress = 100
	s.LastError = nil
	return s, nil
}

// FailExtraction returns the session to its pre-extraction state.
func FailExtraction(s State, tok Token, err error) State {
	if tok != s.Generation || s.Phase != Extracting {
		return s
	}
	s.Phase = Idle
	s.Frames = nil
	s.Progress = 0
	s.LastError = err
	return s
}

// BeginPrediction moves a session holding frames to Predicting.
// A finished session may predict again.
func BeginPrediction(s State) (State, Token, error) {
	switch s.Phase {
	case Extracted, Done:
	case Predicting:
		return s, 0, pipeline.ErrPredictionInProgress
	case Extracting:
		return s, 0, pipeline.ErrExtractionInProgress
	default:
		if s.VideoPath == "" {
			return s, 0, pipeline.ErrNoVideo
		}
		return s, 0, pipeline.ErrNotExtracted
	}
	if !s.HasFrames() {
		return s, 0, pipeline.ErrNotExtracted
	}

	s.Phase = Predicting
	s.Result = nil
	s.LastError = nil
	return s, s.Generation, nil
}

// CompletePrediction stores the result produced under tok.
func CompletePrediction(s State, tok Token, result pipeline.DetectionResult) (State, error) {
	if tok != s.Generation || s.Phase != Predicting {
		return s, pipeline.ErrStaleGeneration
	}
	s.Phase = Done
	s.Result = &result
	return s, nil
}

// FailPrediction returns the session to Extracted, keeping its frames.
func FailPrediction(s State, tok Token, err error) State {
	if tok != s.Generation || s.Phase != Predicting {
		return s
	}
	s.Phase = Extracted
	s.LastError = err
	return s
}

// Reset clears the session, including the selected video.
func Reset(s State) State {
	return State{
		Phase:      Idle,
		Generation: s.Generation + 1,
		Expected:   s.Expected,
	}
}
