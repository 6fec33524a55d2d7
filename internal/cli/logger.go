package cli

import (
	"io"
	"log/slog"

	"github.com/mesh-intelligence/patterns/pkg/types"
)

// newLogger creates a slog.Logger writing to outW. Unknown levels fall back
// to warning so that normal command output stays quiet.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if levelStr != "" {
		if l, err := types.ParseLogLevel(levelStr); err == nil {
			level = l.Slog()
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == types.LogFormatJSON {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}
