// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/accidentscan/pkg/adapters/httpinference"
	"github.com/user/accidentscan/pkg/adapters/smartsource"
	"github.com/user/accidentscan/pkg/contactsheet"
	"github.com/user/accidentscan/pkg/orchestrator"
	"github.com/user/accidentscan/pkg/pipeline"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Summary formats.
const (
	FormatMarkdown = "markdown"
	FormatYAML     = "yaml"
)

// Config represents the full configuration for accidentscan.
type Config struct {
	// Sampling
	Frames        int `yaml:"frames"`
	Width         int `yaml:"width"`
	Height        int `yaml:"height"`
	SeekTimeoutMs int `yaml:"seek_timeout_ms"`

	// Normalization
	Normalization NormalizationConfig `yaml:"normalization"`
	Workers       int                 `yaml:"workers"`
	JPEGQuality   int                 `yaml:"jpeg_quality"`

	// Inference
	Endpoint string `yaml:"endpoint"`

	// Capture
	Source SourceConfig `yaml:"source"`

	// HTTP service
	Server ServerConfig `yaml:"server"`

	// Output
	Output        string             `yaml:"output"`
	SummaryFormat string             `yaml:"summary_format"`
	ContactSheet  ContactSheetConfig `yaml:"contact_sheet"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Tracing
	Tracing TracingConfig `yaml:"tracing"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// NormalizationConfig holds per-channel RGB statistics.
type NormalizationConfig struct {
	Mean [3]float64 `yaml:"mean"`
	Std  [3]float64 `yaml:"std"`
}

// SourceConfig selects and configures the capture backend.
type SourceConfig struct {
	Backend    string `yaml:"backend"`
	FFmpegPath string `yaml:"ffmpeg_path"`
	ChromePath string `yaml:"chrome_path"`
	Headless   bool   `yaml:"headless"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	UploadDir   string `yaml:"upload_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// TracingConfig configures OTLP span export. An empty endpoint disables it.
type TracingConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ContactSheetConfig styles the frame grid.
type ContactSheetConfig struct {
	Columns         int    `yaml:"columns"`
	Thumb           int    `yaml:"thumb"`
	FontPath        string `yaml:"font_path"`
	BackgroundColor string `yaml:"background_color"`
	LabelColor      string `yaml:"label_color"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Sampling
		Frames:        pipeline.DefaultFrameCount,
		Width:         pipeline.FrameWidth,
		Height:        pipeline.FrameHeight,
		SeekTimeoutMs: 10000,

		// Normalization
		Normalization: NormalizationConfig{
			Mean: pipeline.DefaultMean,
			Std:  pipeline.DefaultStd,
		},
		Workers:     4,
		JPEGQuality: pipeline.DefaultJPEGQuality,

		// Inference
		Endpoint: httpinference.DefaultEndpoint,

		// Capture
		Source: SourceConfig{
			Backend:  string(smartsource.BackendAuto),
			Headless: true,
		},

		// HTTP service
		Server: ServerConfig{
			Addr:        ":8080",
			UploadDir:   "./uploads",
			MaxUploadMB: 512,
		},

		// Output
		Output:        "extracted_frames.json",
		SummaryFormat: FormatMarkdown,
		ContactSheet: ContactSheetConfig{
			Columns:         10,
			Thumb:           112,
			BackgroundColor: "#f5f5f5",
			LabelColor:      "#ffffff",
		},

		LogLevel: "info",

		// Debug
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Load reads path when given, then applies ACCIDENTSCAN_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return cfg, err
		}
	}
	return ApplyEnv(cfg), nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Frames <= 0:
		return fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidConfig, c.Frames)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.SeekTimeoutMs < 0:
		return fmt.Errorf("%w: negative seek timeout", ErrInvalidConfig)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("%w: jpeg quality %d not in 1..100", ErrInvalidConfig, c.JPEGQuality)
	}
	for i, s := range c.Normalization.Std {
		if s == 0 {
			return fmt.Errorf("%w: std[%d] is zero", ErrInvalidConfig, i)
		}
	}
	if _, err := smartsource.ParseBackend(c.Source.Backend); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if u, err := url.Parse(c.Endpoint); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: endpoint %q", ErrInvalidConfig, c.Endpoint)
	}
	if ep := c.Tracing.Endpoint; ep != "" {
		if u, err := url.Parse(ep); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: tracing endpoint %q", ErrInvalidConfig, ep)
		}
	}
	switch c.SummaryFormat {
	case FormatMarkdown, FormatYAML:
	default:
		return fmt.Errorf("%w: summary format %q", ErrInvalidConfig, c.SummaryFormat)
	}
	return nil
}

// SeekTimeout returns the per-seek bound.
func (c Config) SeekTimeout() time.Duration {
	return time.Duration(c.SeekTimeoutMs) * time.Millisecond
}

// SourceOptions converts the capture settings for smartsource.
// The backend must already be validated.
func (c Config) SourceOptions() smartsource.Options {
	backend, _ := smartsource.ParseBackend(c.Source.Backend)
	return smartsource.Options{
		Backend:    backend,
		FFmpegPath: c.Source.FFmpegPath,
		ChromePath: c.Source.ChromePath,
		Headless:   c.Source.Headless,
	}
}

// ContactSheetOptions converts the grid style.
func (c Config) ContactSheetOptions() contactsheet.Options {
	opts := contactsheet.DefaultOptions()
	if c.ContactSheet.Columns > 0 {
		opts.Columns = c.ContactSheet.Columns
	}
	if c.ContactSheet.Thumb > 0 {
		opts.Thumb = c.ContactSheet.Thumb
	}
	opts.FontPath = c.ContactSheet.FontPath
	if c.ContactSheet.BackgroundColor != "" {
		opts.Background = ParseColor(c.ContactSheet.BackgroundColor)
	}
	if c.ContactSheet.LabelColor != "" {
		opts.LabelColor = ParseColor(c.ContactSheet.LabelColor)
	}
	return opts
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		FrameCount:   c.Frames,
		Width:        c.Width,
		Height:       c.Height,
		SeekTimeout:  c.SeekTimeout(),
		Mean:         c.Normalization.Mean,
		Std:          c.Normalization.Std,
		Quality:      c.JPEGQuality,
		ContactSheet: c.ContactSheetOptions(),
		ExportPath:   c.Output,
	}
}

// ParseColor parses "#rrggbb" or "#rrggbbaa". Malformed values yield black.
func ParseColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.Black
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}
