package app

import (
	"log/slog"
	"os"
)

// InitLogger sets the process-wide slog default logger
func InitLogger(config *Config) {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.GetSlogLevel(),
	})
	slog.SetDefault(slog.New(handler))
}
