// Package testhelpers contains utilities shared by tests.
package testhelpers

import (
	"io"
	"log/slog"

	"github.com/myrjola/aitrainer/internal/logging"
)

// NewLogger returns a debug level text logger writing to logSink, usually a [NewWriter].
func NewLogger(logSink io.Writer) *slog.Logger {
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	})))
}
