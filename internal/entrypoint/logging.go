package entrypoint

import (
	"io"
	"log/slog"
	"strings"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/secrets/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func NewLogger(cfg config.Log, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// gormLogLevel logs every statement in development and only problems otherwise.
func gormLogLevel(app config.App) logger.LogLevel {
	if app.IsProduction() {
		return logger.Warn
	}
	return logger.Info
}
