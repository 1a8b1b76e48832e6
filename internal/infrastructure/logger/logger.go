package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/LavaJover/shvark-ib-service/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the service logger. LogOutput is "stdout" or a file path; files
// are rotated with lumberjack.
func New(env string, cfg config.LogConfig) *slog.Logger {
	var w io.Writer = os.Stdout
	if out := strings.TrimSpace(cfg.LogOutput); out != "" && out != "stdout" {
		w = &lumberjack.Logger{
			Filename:   out,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.LogLevel),
		AddSource: env == "local",
	}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With(
		slog.String("service", "ib-service"),
		slog.String("env", env),
	)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
