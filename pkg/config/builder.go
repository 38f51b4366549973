package config

// Builder applies command-line overrides on top of a loaded Config.
type Builder struct {
	config Config
}

// NewBuilder starts from base, typically the result of Load.
func NewBuilder(base Config) *Builder {
	return &Builder{config: base}
}

// Build returns the final Config, applying constraints and validation.
func (b *Builder) Build() (Config, error) {
	cfg := b.config

	// Enforce at least one normalization worker
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WithEndpoint sets the inference endpoint URL.
func (b *Builder) WithEndpoint(endpoint string) *Builder {
	b.config.Endpoint = endpoint
	return b
}

// WithFrames sets the number of sampled frames.
func (b *Builder) WithFrames(n int) *Builder {
	b.config.Frames = n
	return b
}

// WithSeekTimeoutMs bounds a single seek-and-capture.
func (b *Builder) WithSeekTimeoutMs(ms int) *Builder {
	b.config.SeekTimeoutMs = ms
	return b
}

// WithWorkers sets the normalization worker count.
// Values below 1 will be forced to 1.
func (b *Builder) WithWorkers(n int) *Builder {
	b.config.Workers = n
	return b
}

// WithBackend selects the capture backend (auto, ffmpeg, chrome, gocv).
func (b *Builder) WithBackend(backend string) *Builder {
	b.config.Source.Backend = backend
	return b
}

// WithFFmpegPath sets an explicit ffmpeg binary.
func (b *Builder) WithFFmpegPath(path string) *Builder {
	b.config.Source.FFmpegPath = path
	return b
}

// WithChromePath sets an explicit Chrome binary.
func (b *Builder) WithChromePath(path string) *Builder {
	b.config.Source.ChromePath = path
	return b
}

// WithHeadless toggles headless Chrome.
func (b *Builder) WithHeadless(headless bool) *Builder {
	b.config.Source.Headless = headless
	return b
}

// WithOutput sets the export document path.
func (b *Builder) WithOutput(path string) *Builder {
	b.config.Output = path
	return b
}

// WithSummaryFormat sets the summary format (markdown or yaml).
func (b *Builder) WithSummaryFormat(format string) *Builder {
	b.config.SummaryFormat = format
	return b
}

// WithDebug enables the debug sink writing into dir.
func (b *Builder) WithDebug(enabled bool, dir string) *Builder {
	b.config.Debug = enabled
	if dir != "" {
		b.config.DebugDir = dir
	}
	return b
}

// WithLogLevel sets the log level name.
func (b *Builder) WithLogLevel(level string) *Builder {
	b.config.LogLevel = level
	return b
}

// WithTracingEndpoint sets the OTLP/HTTP traces URL.
func (b *Builder) WithTracingEndpoint(endpoint string) *Builder {
	b.config.Tracing.Endpoint = endpoint
	return b
}

// WithAddr sets the HTTP listen address.
func (b *Builder) WithAddr(addr string) *Builder {
	b.config.Server.Addr = addr
	return b
}

// WithUploadDir sets where uploaded videos are stored.
func (b *Builder) WithUploadDir(dir string) *Builder {
	b.config.Server.UploadDir = dir
	return b
}
