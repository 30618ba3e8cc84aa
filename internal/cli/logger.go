package cli

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

// NewLogger creates a console logger writing to stderr at the given level.
// Unknown levels fall back to info.
func NewLogger(level string) *log.Logger {
	return newLogger(level, os.Stderr, log.IsTerminal(os.Stderr.Fd()))
}

func newLogger(level string, w io.Writer, color bool) *log.Logger {
	return &log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    color,
			QuoteString:    true,
			EndWithMessage: true,
		},
	}
}
