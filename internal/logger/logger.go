package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/campaign-forge/internal/config"
)

// Setup configures the global slog logger based on environment. The sink
// is the host's single process-wide log destination; plugin ctx.Log calls
// and manager diagnostics all route here.
func Setup(cfg *config.Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithPlugin adds the plugin id to logger context
func WithPlugin(logger *slog.Logger, pluginID string) *slog.Logger {
	return logger.With("plugin", pluginID)
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}
