package obs

import (
	"io"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

// Log output formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
	LogFormatTint = "tint"
)

// NewLogger builds the process logger. Unknown formats fall back to JSON,
// unknown levels to info.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	switch strings.ToLower(format) {
	case LogFormatText:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	case LogFormatTint:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "2006-01-02 15:04:05",
		})
	default:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	}

	return slog.New(handler)
}

// ParseLevel maps debug/info/warn/error to a slog level.
func ParseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
