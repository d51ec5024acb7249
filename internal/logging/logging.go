// Package logging builds the zerolog.Logger the dispatch engine and
// host executable share. The default logger is disabled so the core
// stays side-effect-free in tests, matching the teacher's "Noop*"
// provider convention (see internal/screenbuffer.NoopHostIO).
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a logger writing to w at the given level ("debug", "info",
// "warn", "error", or "disabled" for no output; "" or an unrecognized
// level selects "info"). An empty w
// defaults to os.Stderr.
func New(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if strings.ToLower(level) == "disabled" {
		return zerolog.Nop()
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Nop returns a disabled logger, used as the zero-value default so
// ServerState/Engine construction never requires a logger argument.
func Nop() zerolog.Logger { return zerolog.Nop() }
