package ffmpegsource

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/accidentscan/pkg/adapters/mp4probe"
)

func TestParseProbe(t *testing.T) {
	data := []byte(`{
		"streams": [{"codec_name": "h264", "width": 1280, "height": 720, "duration": "4.966667"}],
		"format": {"duration": "5.000000"}
	}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.DurationSec != 5 {
		t.Errorf("expected format duration 5, got %v", info.DurationSec)
	}
	if info.Width != 1280 || info.Height != 720 || info.Codec != "h264" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestParseProbe_StreamDurationFallback(t *testing.T) {
	data := []byte(`{"streams": [{"codec_name": "vp9", "width": 64, "height": 64, "duration": "2.5"}], "format": {}}`)

	info, err := parseProbe(data)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if info.DurationSec != 2.5 {
		t.Errorf("expected 2.5, got %v", info.DurationSec)
	}
}

func TestParseProbe_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"no streams", `{"streams": [], "format": {"duration": "1"}}`, mp4probe.ErrNoVideoTrack},
		{"no duration", `{"streams": [{"width": 1, "height": 1}], "format": {"duration": "N/A"}}`, mp4probe.ErrUnknownDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseProbe([]byte(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := parseProbe([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestCaptureArgs(t *testing.T) {
	args := strings.Join(captureArgs("/videos/a.mp4", 1.5), " ")
	want := "-v error -ss 1.500 -i /videos/a.mp4 -frames:v 1 -f image2pipe -vcodec png -"
	if args != want {
		t.Errorf("captureArgs = %q, want %q", args, want)
	}
}

func TestFindFFmpeg_CustomMissing(t *testing.T) {
	_, err := FindFFmpeg(filepath.Join(t.TempDir(), "no-ffmpeg"))
	if !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestOpener_CustomMissing(t *testing.T) {
	o := NewOpener(Options{FFmpegPath: filepath.Join(t.TempDir(), "no-ffmpeg")})
	if _, err := o.Open("a.mp4"); !errors.Is(err, ErrFFmpegNotFound) {
		t.Errorf("expected ErrFFmpegNotFound, got %v", err)
	}
}

func TestSource_Closed(t *testing.T) {
	s := &Source{path: "a.mp4", ffmpeg: "ffmpeg"}
	s.Close()

	if _, err := s.Metadata(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := s.SeekAndCapture(context.Background(), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestSource_Integration(t *testing.T) {
	ffmpegPath, err := FindFFmpeg("")
	if err != nil {
		t.Skip("ffmpeg not available")
	}

	path := filepath.Join(t.TempDir(), "testsrc.mp4")
	gen := exec.Command(ffmpegPath, "-v", "error", "-y",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=25",
		"-pix_fmt", "yuv420p", path)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Skipf("cannot generate test video: %v: %s", err, out)
	}

	src, err := NewOpener(Options{}).Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	info, err := src.Metadata(context.Background())
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if info.DurationSec < 1.9 || info.DurationSec > 2.1 {
		t.Errorf("expected about 2s, got %v", info.DurationSec)
	}

	img, err := src.SeekAndCapture(context.Background(), 1.0)
	if err != nil {
		t.Fatalf("SeekAndCapture failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("expected 320x240, got %v", b)
	}
}
