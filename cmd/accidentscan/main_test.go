package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ideamans/go-l10n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"

	"github.com/user/accidentscan/pkg/adapters/logger"
	"github.com/user/accidentscan/pkg/config"
	"github.com/user/accidentscan/pkg/orchestrator"
	"github.com/user/accidentscan/pkg/pipeline"
	"github.com/user/accidentscan/pkg/ports"
	"github.com/user/accidentscan/pkg/stages/dispatch"
)

// configApp runs loadConfig under the same flags the pipeline commands use.
func configApp(out *config.Config) *cli.App {
	return &cli.App{
		Name:  "accidentscan",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:  "x",
				Flags: append(pipelineFlags(), outputFlag()),
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					*out = cfg
					return err
				},
			},
		},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	var cfg config.Config
	require.NoError(t, configApp(&cfg).Run([]string{"accidentscan", "x"}))

	want := config.ApplyEnv(config.Defaults())
	assert.Equal(t, want.Frames, cfg.Frames)
	assert.Equal(t, want.Endpoint, cfg.Endpoint)
	assert.Equal(t, want.Output, cfg.Output)
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	var cfg config.Config
	err := configApp(&cfg).Run([]string{
		"accidentscan", "--log-level", "debug", "--debug", "--debug-dir", "dbg",
		"x", "--frames", "8", "--backend", "ffmpeg", "--output", "out.json",
		"--endpoint", "http://model:9000/predict", "--no-headless",
	})
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Frames)
	assert.Equal(t, "ffmpeg", cfg.Source.Backend)
	assert.False(t, cfg.Source.Headless)
	assert.Equal(t, "out.json", cfg.Output)
	assert.Equal(t, "http://model:9000/predict", cfg.Endpoint)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "dbg", cfg.DebugDir)
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("frames: 12\nworkers: 2\n"), 0644))

	var cfg config.Config
	require.NoError(t, configApp(&cfg).Run([]string{"accidentscan", "--config", path, "x", "--frames", "5"}))

	assert.Equal(t, 5, cfg.Frames)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadConfig_Invalid(t *testing.T) {
	var cfg config.Config
	err := configApp(&cfg).Run([]string{"accidentscan", "x", "--backend", "vhs"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestExtract_RequiresVideo(t *testing.T) {
	err := newApp().Run([]string{"accidentscan", "--quiet", "extract"})
	assert.ErrorIs(t, err, errVideoArgument)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","device":"cpu"}`))
	}))
	defer srv.Close()

	err := newApp().Run([]string{"accidentscan", "--quiet", "ping", "--endpoint", srv.URL + "/predict"})
	assert.NoError(t, err)
}

func TestPing_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newApp().Run([]string{"accidentscan", "--quiet", "ping", "--endpoint", srv.URL + "/predict"})
	assert.Error(t, err)
}

func TestLoadConfig_TracingEndpoint(t *testing.T) {
	var cfg config.Config
	err := configApp(&cfg).Run([]string{
		"accidentscan", "--tracing-endpoint", "http://collector:4318/v1/traces", "x",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://collector:4318/v1/traces", cfg.Tracing.Endpoint)

	err = configApp(&cfg).Run([]string{"accidentscan", "--tracing-endpoint", "collector:4318", "x"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestSetup_FlushesTracesOnClose(t *testing.T) {
	tp, prop := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
	})

	var exports atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			exports.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	app := &cli.App{
		Name:  "accidentscan",
		Flags: globalFlags(),
		Commands: []*cli.Command{
			{
				Name:  "x",
				Flags: append(pipelineFlags(), outputFlag()),
				Action: func(c *cli.Context) error {
					a, err := setup(c)
					if err != nil {
						return err
					}
					_, span := otel.Tracer("test").Start(context.Background(), "command")
					span.End()
					a.close()
					return nil
				},
			},
		},
	}

	err := app.Run([]string{"accidentscan", "--quiet", "--tracing-endpoint", collector.URL + "/v1/traces", "x"})
	require.NoError(t, err)
	assert.NotZero(t, exports.Load(), "expected spans flushed to the collector on close")
}

func TestReportDetection_NoDuplicateNotice(t *testing.T) {
	var out bytes.Buffer
	log := logger.NewWriter(ports.LevelDebug, &out, &out)

	notice := dispatch.PlaceholderNotice + " (connection refused)"
	reportDetection(log, orchestrator.RunResult{
		ExportPath: "frames.json",
		Detection: &pipeline.DetectionResult{
			AccidentDetected: true,
			Confidence:       0.85,
			Placeholder:      true,
			Notice:           notice,
		},
	})

	assert.NotContains(t, out.String(), notice)
	assert.Contains(t, out.String(), "confidence 85.0%")
	assert.Contains(t, out.String(), "frames.json")
}

func TestCLIMessages_JapaneseFormatting(t *testing.T) {
	l10n.ForceLanguage("ja")
	defer l10n.ResetLanguage()

	for key := range cliMessages {
		n := strings.Count(key, "%s")
		if n == 0 {
			continue
		}
		args := make([]any, n)
		for i := range args {
			args[i] = "video.mp4"
		}
		got := l10n.F(key, args...)
		assert.NotContains(t, got, "%!", "bad translation for %q", key)
		assert.Contains(t, got, "video.mp4", "argument dropped for %q", key)
	}
}
