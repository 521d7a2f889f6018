// Package logging builds the debug logger shared by all commands.
package logging

import (
	"io"
	"log/slog"
)

// New returns a text logger writing to w at debug level when debug is set.
// Otherwise all records are discarded.
func New(w io.Writer, debug bool) *slog.Logger {
	if !debug || w == nil {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
