// Package logger builds the slog logger used by the command line tool.
package logger

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Config holds the configuration of the logger.
type Config struct {
	Level  slog.Level
	Format string
}

// FromConfig maps the textual level and format to a Config. Unknown levels
// fall back to info, unknown formats to text.
func FromConfig(logLevel, logFormat string) Config {
	cfg := Config{
		Level:  ParseLevel(logLevel),
		Format: "text",
	}
	if strings.EqualFold(logFormat, "json") {
		cfg.Format = "json"
	}
	return cfg
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New writes JSON in json format and colourised text otherwise.
func New(w io.Writer, cfg Config) *slog.Logger {
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      cfg.Level,
		TimeFormat: time.Kitchen,
	}))
}
