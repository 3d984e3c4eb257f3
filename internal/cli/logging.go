package cli

import (
	"io"
	"log/slog"

	"github.com/roach88/provkit/internal/config"
)

// newLogger builds the slog handler named by the logging config. Verbose
// lowers the level to debug.
func newLogger(cfg config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}
