// Package ffmpegsource captures video frames by running ffmpeg as an external process.
package ffmpegsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"sync"

	"github.com/user/accidentscan/pkg/adapters/mp4probe"
	"github.com/user/accidentscan/pkg/ports"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not found.
	ErrFFmpegNotFound = errors.New("ffmpegsource: ffmpeg not found in PATH")

	// ErrFFprobeNotFound is returned when ffprobe is not found.
	ErrFFprobeNotFound = errors.New("ffmpegsource: ffprobe not found in PATH")

	// ErrCaptureFailed is returned when ffmpeg produced no image.
	ErrCaptureFailed = errors.New("ffmpegsource: capture failed")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("ffmpegsource: source closed")
)

// Options configures tool locations.
type Options struct {
	FFmpegPath  string
	FFprobePath string
}

// Opener opens files as ffmpeg-backed sources.
type Opener struct {
	opts Options
}

// NewOpener creates a new Opener.
func NewOpener(opts Options) *Opener {
	return &Opener{opts: opts}
}

// Open returns a source for path. Metadata is read lazily.
func (o *Opener) Open(path string) (ports.RasterSource, error) {
	ffmpegPath, err := FindFFmpeg(o.opts.FFmpegPath)
	if err != nil {
		return nil, err
	}
	// ffprobe is optional; mp4 metadata is read natively.
	ffprobePath, _ := FindFFprobe(o.opts.FFprobePath)

	return &Source{path: path, ffmpeg: ffmpegPath, ffprobe: ffprobePath}, nil
}

// Source is a ports.RasterSource backed by ffmpeg subprocesses.
type Source struct {
	path    string
	ffmpeg  string
	ffprobe string

	mu     sync.Mutex
	info   *ports.VideoInfo
	closed bool
}

// Metadata returns duration and size, trying the MP4 container first and ffprobe second.
func (s *Source) Metadata(ctx context.Context) (ports.VideoInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ports.VideoInfo{}, ErrClosed
	}
	if s.info != nil {
		return *s.info, nil
	}

	info, err := mp4probe.ProbeFile(s.path)
	if err != nil || info.DurationSec <= 0 {
		if s.ffprobe == "" {
			if err == nil {
				err = mp4probe.ErrUnknownDuration
			}
			return ports.VideoInfo{}, fmt.Errorf("probe %s: %w", s.path, err)
		}
		info, err = s.runProbe(ctx)
		if err != nil {
			return ports.VideoInfo{}, err
		}
	}

	s.info = &info
	return info, nil
}

// probeOutput is the subset of ffprobe's JSON output that is used.
type probeOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (s *Source) runProbe(ctx context.Context) (ports.VideoInfo, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.ffprobe, probeArgs(s.path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("ffprobe failed: %w\nstderr: %s", err, stderr.String())
	}
	return parseProbe(stdout.Bytes())
}

func probeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,duration:format=duration",
		"-of", "json",
		path,
	}
}

// parseProbe extracts VideoInfo from ffprobe JSON.
func parseProbe(data []byte) (ports.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return ports.VideoInfo{}, mp4probe.ErrNoVideoTrack
	}

	st := out.Streams[0]
	info := ports.VideoInfo{Width: st.Width, Height: st.Height, Codec: st.CodecName}

	for _, d := range []string{out.Format.Duration, st.Duration} {
		if v, err := strconv.ParseFloat(d, 64); err == nil && v > 0 {
			info.DurationSec = v
			break
		}
	}
	if info.DurationSec <= 0 {
		return info, mp4probe.ErrUnknownDuration
	}
	return info, nil
}

func captureArgs(path string, timestampSec float64) []string {
	return []string{
		"-v", "error",
		"-ss", strconv.FormatFloat(timestampSec, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	}
}

// SeekAndCapture decodes the frame at timestampSec. The subprocess is killed
// when ctx is done.
func (s *Source) SeekAndCapture(ctx context.Context, timestampSec float64) (image.Image, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.ffmpeg, captureArgs(s.path, timestampSec)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg capture failed: %w\nstderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%w at %.3fs", ErrCaptureFailed, timestampSec)
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}
	return img, nil
}

// Close marks the source closed. No process outlives its call.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var (
	_ ports.RasterSource = (*Source)(nil)
	_ ports.SourceOpener = (*Opener)(nil)
)
