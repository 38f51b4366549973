// Package main provides the CLI entry point for accidentscan.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/accidentscan/pkg/adapters/filesink"
	"github.com/user/accidentscan/pkg/adapters/ggrenderer"
	"github.com/user/accidentscan/pkg/adapters/httpinference"
	"github.com/user/accidentscan/pkg/adapters/logger"
	"github.com/user/accidentscan/pkg/adapters/nullsink"
	"github.com/user/accidentscan/pkg/adapters/osfilesystem"
	"github.com/user/accidentscan/pkg/adapters/smartsource"
	"github.com/user/accidentscan/pkg/config"
	"github.com/user/accidentscan/pkg/orchestrator"
	"github.com/user/accidentscan/pkg/ports"
	"github.com/user/accidentscan/pkg/server"
	"github.com/user/accidentscan/pkg/stages/dispatch"
	"github.com/user/accidentscan/pkg/stages/export"
	"github.com/user/accidentscan/pkg/stages/normalize"
	"github.com/user/accidentscan/pkg/stages/sample"
	"github.com/user/accidentscan/pkg/summarizer"
	"github.com/user/accidentscan/pkg/tracing"
)

var version = "dev"

var errVideoArgument = errors.New("video argument is required")

// Flag categories
const (
	catOutput    = "Output"
	catInference = "Inference"
	catCapture   = "Capture"
	catSampling  = "Sampling"
	catServer    = "Server"
	catDebug     = "Debug"
	catLogging   = "Logging"
	catTracing   = "Tracing"
)

// shutdownTimeout bounds the final span flush.
const shutdownTimeout = 5 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:                 "accidentscan",
		Usage:                l10n.T("Detect traffic accidents in dashcam and CCTV videos"),
		Description:          l10n.T("accidentscan samples frames from a video, normalizes them and asks an accident classification model for a verdict."),
		HideVersion:          true,
		EnableBashCompletion: true,
		Flags:                globalFlags(),
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     l10n.T("Sample frames and write the export document"),
				ArgsUsage: "VIDEO",
				Flags:     append(pipelineFlags(), outputFlag()),
				Action:    runExtract,
			},
			{
				Name:      "detect",
				Usage:     l10n.T("Sample frames and classify them"),
				ArgsUsage: "VIDEO",
				Flags: append(pipelineFlags(),
					outputFlag(),
					&cli.BoolFlag{
						Name:     "export",
						Usage:    l10n.T("Also write the export document"),
						Category: l10n.T(catOutput),
					},
					&cli.StringFlag{
						Name:     "summary",
						Aliases:  []string{"s"},
						Usage:    l10n.T("Write a run summary to FILE"),
						Category: l10n.T(catOutput),
					},
					&cli.StringFlag{
						Name:     "summary-format",
						Usage:    l10n.T("Summary format (markdown, yaml)"),
						Category: l10n.T(catOutput),
					},
				),
				Action: runDetect,
			},
			{
				Name:  "serve",
				Usage: l10n.T("Serve the workflow over HTTP"),
				Flags: append(pipelineFlags(),
					outputFlag(),
					&cli.StringFlag{
						Name:     "addr",
						Usage:    l10n.T("Listen address"),
						Category: l10n.T(catServer),
					},
					&cli.StringFlag{
						Name:     "upload-dir",
						Usage:    l10n.T("Directory for uploaded videos"),
						Category: l10n.T(catServer),
					},
				),
				Action: runServe,
			},
			{
				Name:   "ping",
				Usage:  l10n.T("Check the inference endpoint health"),
				Flags:  []cli.Flag{endpointFlag()},
				Action: runPing,
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Println(l10n.F("accidentscan version %s", version))
					return nil
				},
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   l10n.T("YAML configuration file"),
		},
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T(catLogging),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T(catLogging),
		},
		&cli.BoolFlag{
			Name:     "debug",
			Aliases:  []string{"d"},
			Usage:    l10n.T("Enable debug output"),
			Category: l10n.T(catDebug),
		},
		&cli.StringFlag{
			Name:     "debug-dir",
			Usage:    l10n.T("Directory for debug output"),
			Category: l10n.T(catDebug),
		},
		&cli.StringFlag{
			Name:     "tracing-endpoint",
			Usage:    l10n.T("OTLP/HTTP traces URL (disabled when empty)"),
			Category: l10n.T(catTracing),
		},
	}
}

func endpointFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "endpoint",
		Aliases:  []string{"e"},
		Usage:    l10n.T("Inference endpoint URL"),
		Category: l10n.T(catInference),
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "output",
		Aliases:  []string{"o"},
		Usage:    l10n.T("Export document path"),
		Category: l10n.T(catOutput),
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		endpointFlag(),
		&cli.IntFlag{
			Name:     "frames",
			Aliases:  []string{"n"},
			Usage:    l10n.T("Number of frames to sample"),
			Category: l10n.T(catSampling),
		},
		&cli.IntFlag{
			Name:     "workers",
			Usage:    l10n.T("Normalization workers"),
			Category: l10n.T(catSampling),
		},
		&cli.IntFlag{
			Name:     "seek-timeout",
			Usage:    l10n.T("Seek timeout in milliseconds"),
			Category: l10n.T(catSampling),
		},
		&cli.StringFlag{
			Name:     "backend",
			Usage:    l10n.T("Capture backend (auto, ffmpeg, chrome, gocv)"),
			Category: l10n.T(catCapture),
		},
		&cli.StringFlag{
			Name:     "ffmpeg-path",
			Usage:    l10n.T("Path to ffmpeg executable"),
			Category: l10n.T(catCapture),
		},
		&cli.StringFlag{
			Name:     "chrome-path",
			Usage:    l10n.T("Path to Chrome executable"),
			Category: l10n.T(catCapture),
		},
		&cli.BoolFlag{
			Name:     "no-headless",
			Usage:    l10n.T("Run browser in non-headless mode"),
			Category: l10n.T(catCapture),
		},
	}
}

// loadConfig reads the config file and environment, then applies flags the user set.
func loadConfig(c *cli.Context) (config.Config, error) {
	base, err := config.Load(c.String("config"))
	if err != nil {
		return base, err
	}

	b := config.NewBuilder(base)
	if c.IsSet("endpoint") {
		b.WithEndpoint(c.String("endpoint"))
	}
	if c.IsSet("frames") {
		b.WithFrames(c.Int("frames"))
	}
	if c.IsSet("workers") {
		b.WithWorkers(c.Int("workers"))
	}
	if c.IsSet("seek-timeout") {
		b.WithSeekTimeoutMs(c.Int("seek-timeout"))
	}
	if c.IsSet("backend") {
		b.WithBackend(c.String("backend"))
	}
	if c.IsSet("ffmpeg-path") {
		b.WithFFmpegPath(c.String("ffmpeg-path"))
	}
	if c.IsSet("chrome-path") {
		b.WithChromePath(c.String("chrome-path"))
	}
	if c.IsSet("no-headless") {
		b.WithHeadless(!c.Bool("no-headless"))
	}
	if c.IsSet("output") {
		b.WithOutput(c.String("output"))
	}
	if c.IsSet("summary-format") {
		b.WithSummaryFormat(c.String("summary-format"))
	}
	if c.IsSet("debug") || c.IsSet("debug-dir") {
		b.WithDebug(c.Bool("debug") || base.Debug, c.String("debug-dir"))
	}
	if c.IsSet("log-level") {
		b.WithLogLevel(c.String("log-level"))
	}
	if c.IsSet("tracing-endpoint") {
		b.WithTracingEndpoint(c.String("tracing-endpoint"))
	}
	if c.IsSet("addr") {
		b.WithAddr(c.String("addr"))
	}
	if c.IsSet("upload-dir") {
		b.WithUploadDir(c.String("upload-dir"))
	}
	return b.Build()
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// app bundles the wired components for one command.
type app struct {
	cfg    config.Config
	log    ports.Logger
	client *httpinference.Client
	orch   *orchestrator.Orchestrator
	fs     ports.FileSystem

	shutdown tracing.ShutdownFunc
}

// close flushes pending spans.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.log.Warn("Failed to flush traces: %s", err)
	}
}

func setup(c *cli.Context) (*app, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	log := newLogger(c, cfg)

	shutdown, err := tracing.Init(c.Context, cfg.Tracing.Endpoint)
	if err != nil {
		return nil, err
	}
	if cfg.Tracing.Endpoint != "" {
		log.Debug("Exporting traces to %s", cfg.Tracing.Endpoint)
	}

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	opener := smartsource.New(cfg.SourceOptions(), log)
	client, err := httpinference.New(cfg.Endpoint)
	if err != nil {
		_ = shutdown(c.Context)
		return nil, err
	}

	// Create debug sink
	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			_ = shutdown(c.Context)
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
		log.Info("Debug output enabled: %s", cfg.DebugDir)
	} else {
		sink = nullsink.New()
	}

	// Create stages
	stages := orchestrator.Stages{
		Sample:    sample.New(renderer, sink, log),
		Normalize: normalize.NewStage(renderer, log, cfg.Workers),
		Dispatch:  dispatch.NewStage(client, sink, log),
		Export:    export.NewStage(sink, log),
	}

	orch := orchestrator.New(opener, stages, renderer, fs, sink, log, cfg.ToOrchestratorConfig())

	return &app{cfg: cfg, log: log, client: client, orch: orch, fs: fs, shutdown: shutdown}, nil
}

func videoArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		return "", errVideoArgument
	}
	return c.Args().First(), nil
}

func runExtract(c *cli.Context) error {
	video, err := videoArg(c)
	if err != nil {
		return err
	}
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()
	ctx, cancel := signalContext(a.log)
	defer cancel()

	a.log.Info("Extracting frames from %s...", video)
	result, err := a.orch.Run(ctx, orchestrator.RunConfig{
		VideoPath:  video,
		Export:     true,
		ExportPath: a.cfg.Output,
	})
	if err != nil {
		return err
	}

	a.log.Info("Output saved to %s", result.ExportPath)
	return nil
}

func runDetect(c *cli.Context) error {
	video, err := videoArg(c)
	if err != nil {
		return err
	}
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()
	ctx, cancel := signalContext(a.log)
	defer cancel()

	a.log.Info("Analyzing %s...", video)
	result, err := a.orch.Run(ctx, orchestrator.RunConfig{
		VideoPath:  video,
		Export:     c.Bool("export"),
		ExportPath: a.cfg.Output,
		Predict:    true,
	})
	if err != nil {
		return err
	}

	reportDetection(a.log, result)

	if path := c.String("summary"); path != "" {
		formatter, err := summarizer.ForFormat(a.cfg.SummaryFormat)
		if err != nil {
			return err
		}
		if err := summarizer.NewWriter(formatter, a.fs).Write(path, summarizer.FromRunResult(result)); err != nil {
			a.log.Warn("Failed to write summary: %s", err)
		} else {
			a.log.Info("Summary saved to %s", path)
		}
	}
	return nil
}

// reportDetection logs the verdict. The dispatch stage has already logged
// any placeholder notice.
func reportDetection(log ports.Logger, result orchestrator.RunResult) {
	if d := result.Detection; d != nil {
		log.Info("Result: %s (confidence %.1f%%)", d.Label(), d.Confidence*100)
	}
	if result.ExportPath != "" {
		log.Info("Output saved to %s", result.ExportPath)
	}
}

func runServe(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()
	ctx, cancel := signalContext(a.log)
	defer cancel()

	srv := server.New(ctx, a.orch, a.client, server.Options{
		UploadDir:      a.cfg.Server.UploadDir,
		MaxUploadBytes: int64(a.cfg.Server.MaxUploadMB) << 20,
		ExportName:     filepath.Base(a.cfg.Output),
	}, a.log)
	return srv.Run(ctx, a.cfg.Server.Addr)
}

func runPing(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)
	ctx, cancel := signalContext(log)
	defer cancel()

	client, err := httpinference.New(cfg.Endpoint)
	if err != nil {
		return err
	}
	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("ping %s: %w", client.HealthURL(), err)
	}
	log.Info("Model server %s: %s (%s)", client.HealthURL(), health.Status, health.Device)
	return nil
}
