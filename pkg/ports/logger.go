package ports

import "strings"

// LogLevel is the minimum severity a Logger writes.
type LogLevel int

const (
	// LevelDebug covers cache bookkeeping and per-frame loader logs.
	LevelDebug LogLevel = iota
	// LevelInfo covers command-level progress.
	LevelInfo
	// LevelWarn covers frames that failed while the command kept going.
	LevelWarn
	// LevelError covers failures that end the command.
	LevelError
	// LevelQuiet suppresses all output.
	LevelQuiet
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelQuiet: "quiet",
}

// String returns the lower-case level name.
func (l LogLevel) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "unknown"
	}
	return levelNames[l]
}

// ParseLogLevel parses a level name, ignoring case. "warning" is accepted
// for warn. Unknown values fall back to LevelInfo.
func ParseLogLevel(s string) LogLevel {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "warning" {
		return LevelWarn
	}
	for l, n := range levelNames {
		if n == name {
			return LogLevel(l)
		}
	}
	return LevelInfo
}

// Logger writes leveled, translatable log messages. msg is a message key
// looked up in the registered lexicons before formatting with args.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// WithComponent returns a Logger that prefixes messages with component.
	WithComponent(component string) Logger
}
