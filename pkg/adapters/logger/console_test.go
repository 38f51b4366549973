package logger

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/ideamans/go-l10n"

	"github.com/user/accidentscan/pkg/ports"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewWriter(ports.LevelInfo, &out, &errOut)

	log.Debug("hidden %d", 1)
	log.Info("Sampled %d frames", 60)
	log.Warn("placeholder")
	log.Error("failed")

	if strings.Contains(out.String(), "hidden") {
		t.Error("debug message should be filtered at info level")
	}
	if !strings.Contains(out.String(), "60") {
		t.Errorf("expected info on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "placeholder") || !strings.Contains(errOut.String(), "failed") {
		t.Errorf("expected warn and error on stderr, got %q", errOut.String())
	}
}

func TestConsoleLogger_Component(t *testing.T) {
	var out bytes.Buffer
	log := NewWriter(ports.LevelDebug, &out, &out).WithComponent("sampler")

	log.Debug("tick")

	if got := strings.TrimSpace(out.String()); got != "[sampler] tick" {
		t.Errorf("unexpected line %q", got)
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out bytes.Buffer
	log := NewWriter(ports.LevelQuiet, &out, &out)

	log.Error("nothing")

	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestNoopLogger(t *testing.T) {
	log := NewNoop()
	if log.WithComponent("x") != log {
		t.Error("expected the same no-op logger")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want ports.LogLevel
	}{
		{"debug", ports.LevelDebug},
		{"INFO", ports.LevelInfo},
		{" warn ", ports.LevelWarn},
		{"warning", ports.LevelWarn},
		{"error", ports.LevelError},
		{"silent", ports.LevelQuiet},
		{"bogus", ports.LevelInfo},
	}
	for _, tt := range tests {
		if got := ports.ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ports.LogLevel(42).String() != "unknown" {
		t.Error("out of range level should be unknown")
	}
}

func TestConsoleLogger_ComponentKeepsLevel(t *testing.T) {
	var out bytes.Buffer
	base := NewWriter(ports.LevelWarn, &out, &out)
	log := base.WithComponent("dispatch")

	log.Info("skipped")
	log.Warn("kept")

	if got := strings.TrimSpace(out.String()); got != "[dispatch] kept" {
		t.Errorf("unexpected output %q", got)
	}
	if base.Level() != ports.LevelWarn {
		t.Errorf("base level changed to %v", base.Level())
	}
}

var verbPattern = regexp.MustCompile(`%[-+# 0]*\d*(?:\.\d+)?([a-zA-Z%])`)

// argsFor builds sample arguments matching the verbs of an English key.
func argsFor(key string) []interface{} {
	var args []interface{}
	for _, m := range verbPattern.FindAllStringSubmatch(key, -1) {
		switch m[1] {
		case "%":
		case "d":
			args = append(args, 7)
		case "f":
			args = append(args, 1.5)
		default:
			args = append(args, "clip.mp4")
		}
	}
	return args
}

func TestMessages_JapaneseFormatting(t *testing.T) {
	l10n.ForceLanguage("ja")
	defer l10n.ResetLanguage()

	for key, ja := range messages {
		args := argsFor(key)
		if len(args) == 0 {
			continue
		}

		var out bytes.Buffer
		NewWriter(ports.LevelDebug, &out, &out).Info(key, args...)

		if got := out.String(); strings.Contains(got, "%!") {
			t.Errorf("%q (ja %q) formats badly: %q", key, ja, got)
		}
	}
}

func TestMessages_ReorderedArguments(t *testing.T) {
	l10n.ForceLanguage("ja")
	defer l10n.ResetLanguage()

	var out bytes.Buffer
	NewWriter(ports.LevelDebug, &out, &out).Info("Extracting %d frames from %s", 60, "clip.mp4")

	if got := strings.TrimSpace(out.String()); got != "clip.mp4 から 60 フレームを抽出中" {
		t.Errorf("unexpected line %q", got)
	}
}
