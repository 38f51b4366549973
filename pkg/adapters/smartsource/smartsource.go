// Package smartsource selects a frame capture backend for a video file.
package smartsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/user/accidentscan/pkg/adapters/chromesource"
	"github.com/user/accidentscan/pkg/adapters/ffmpegsource"
	"github.com/user/accidentscan/pkg/adapters/gocvsource"
	"github.com/user/accidentscan/pkg/ports"
)

// Backend names a capture implementation.
type Backend string

const (
	// BackendAuto tries ffmpeg, then OpenCV, then Chrome.
	BackendAuto Backend = "auto"
	// BackendFFmpeg runs ffmpeg subprocesses.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendChrome drives a headless Chrome <video> element.
	BackendChrome Backend = "chrome"
	// BackendGoCV uses OpenCV (requires the gocv build tag).
	BackendGoCV Backend = "gocv"
)

var (
	// ErrUnknownBackend is returned for an unrecognized backend name.
	ErrUnknownBackend = errors.New("smartsource: unknown backend")
	// ErrNoBackendAvailable is returned when auto selection finds nothing usable.
	ErrNoBackendAvailable = errors.New("smartsource: no capture backend available")
)

// ParseBackend converts a config or flag value into a Backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendAuto:
		return BackendAuto, nil
	case BackendFFmpeg, BackendChrome, BackendGoCV:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Options configures the backends.
type Options struct {
	Backend    Backend
	FFmpegPath string
	ChromePath string
	Headless   bool
}

// Candidate is one backend considered by the opener.
type Candidate struct {
	Backend   Backend
	Opener    ports.SourceOpener
	Available func() bool
}

// Opener implements ports.SourceOpener by delegating to the selected backend.
type Opener struct {
	backend    Backend
	candidates []Candidate
	logger     ports.Logger
}

// New creates an Opener with the built-in backends.
func New(opts Options, logger ports.Logger) *Opener {
	candidates := []Candidate{
		{
			Backend: BackendFFmpeg,
			Opener:  ffmpegsource.NewOpener(ffmpegsource.Options{FFmpegPath: opts.FFmpegPath}),
			Available: func() bool {
				_, err := ffmpegsource.FindFFmpeg(opts.FFmpegPath)
				return err == nil
			},
		},
		{
			Backend:   BackendGoCV,
			Opener:    gocvsource.NewOpener(),
			Available: gocvsource.Available,
		},
		{
			Backend: BackendChrome,
			Opener:  chromesource.NewOpener(chromesource.Options{ChromePath: opts.ChromePath, Headless: opts.Headless}),
			Available: func() bool {
				return chromesource.ResolveChromePath(opts.ChromePath) != ""
			},
		},
	}
	return NewWithCandidates(opts.Backend, candidates, logger)
}

// NewWithCandidates creates an Opener over an explicit candidate list, in
// auto-selection order.
func NewWithCandidates(backend Backend, candidates []Candidate, logger ports.Logger) *Opener {
	if backend == "" {
		backend = BackendAuto
	}
	return &Opener{
		backend:    backend,
		candidates: candidates,
		logger:     logger.WithComponent("source"),
	}
}

// Select returns the candidate that Open would use.
func (o *Opener) Select() (Candidate, error) {
	if o.backend != BackendAuto {
		for _, c := range o.candidates {
			if c.Backend == o.backend {
				return c, nil
			}
		}
		return Candidate{}, fmt.Errorf("%w: %q", ErrUnknownBackend, o.backend)
	}

	for _, c := range o.candidates {
		if c.Available == nil || c.Available() {
			return c, nil
		}
	}
	return Candidate{}, ErrNoBackendAvailable
}

// Open opens path with the selected backend.
func (o *Opener) Open(path string) (ports.RasterSource, error) {
	c, err := o.Select()
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Using %s capture backend", string(c.Backend))
	return c.Opener.Open(path)
}

var _ ports.SourceOpener = (*Opener)(nil)
