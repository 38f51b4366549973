package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. ACCIDENTSCAN_SOURCE_BACKEND.
const EnvPrefix = "ACCIDENTSCAN"

// envKeys lists the settings that can be overridden from the environment.
var envKeys = []string{
	"frames",
	"width",
	"height",
	"seek_timeout_ms",
	"workers",
	"jpeg_quality",
	"endpoint",
	"source.backend",
	"source.ffmpeg_path",
	"source.chrome_path",
	"source.headless",
	"server.addr",
	"server.upload_dir",
	"server.max_upload_mb",
	"output",
	"summary_format",
	"log_level",
	"tracing.endpoint",
	"debug",
	"debug_dir",
}

// ApplyEnv overlays ACCIDENTSCAN_* environment variables on cfg.
// Unset or empty variables leave the value untouched.
func ApplyEnv(cfg Config) Config {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setInt("frames", &cfg.Frames)
	setInt("width", &cfg.Width)
	setInt("height", &cfg.Height)
	setInt("seek_timeout_ms", &cfg.SeekTimeoutMs)
	setInt("workers", &cfg.Workers)
	setInt("jpeg_quality", &cfg.JPEGQuality)
	setString("endpoint", &cfg.Endpoint)
	setString("source.backend", &cfg.Source.Backend)
	setString("source.ffmpeg_path", &cfg.Source.FFmpegPath)
	setString("source.chrome_path", &cfg.Source.ChromePath)
	setBool("source.headless", &cfg.Source.Headless)
	setString("server.addr", &cfg.Server.Addr)
	setString("server.upload_dir", &cfg.Server.UploadDir)
	setInt("server.max_upload_mb", &cfg.Server.MaxUploadMB)
	setString("output", &cfg.Output)
	setString("summary_format", &cfg.SummaryFormat)
	setString("log_level", &cfg.LogLevel)
	setString("tracing.endpoint", &cfg.Tracing.Endpoint)
	setBool("debug", &cfg.Debug)
	setString("debug_dir", &cfg.DebugDir)

	return cfg
}
