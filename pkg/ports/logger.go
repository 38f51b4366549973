package ports

import "strings"

// LogLevel orders log severities. Messages below the configured level are dropped.
type LogLevel int

const (
	// LevelDebug covers per-stage detail: each seek, worker counts, request shapes.
	LevelDebug LogLevel = iota
	// LevelInfo covers session progress: file selected, frames extracted, verdict.
	LevelInfo
	// LevelWarn covers recoverable problems such as a placeholder verdict.
	LevelWarn
	// LevelError covers failures that abort an extraction, prediction or export.
	LevelError
	// LevelQuiet drops everything.
	LevelQuiet
)

var levelNames = [...]string{"debug", "info", "warn", "error", "quiet"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelQuiet {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel maps a level name to a LogLevel. Matching ignores case and
// accepts "warning" and "silent" as aliases. Unknown names yield LevelInfo.
func ParseLogLevel(s string) LogLevel {
	switch name := strings.ToLower(strings.TrimSpace(s)); name {
	case "warning":
		return LevelWarn
	case "silent":
		return LevelQuiet
	default:
		for i, n := range levelNames {
			if n == name {
				return LogLevel(i)
			}
		}
		return LevelInfo
	}
}

// Logger is the logging port used by every stage and adapter.
// msg is a translation key in fmt syntax; args fill its verbs after translation.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// WithComponent tags subsequent messages with a component name such as
	// "sampler" or "dispatch".
	WithComponent(component string) Logger
}
