package tui

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// NewOutput wraps w in a termenv output. Colors are only emitted when w is a
// terminal and NO_COLOR is unset; pipes and buffers get plain text.
func NewOutput(w io.Writer) *termenv.Output {
	profile := termenv.Ascii
	if IsTerminal(w) && os.Getenv("NO_COLOR") == "" {
		profile = termenv.EnvColorProfile()
	}
	return termenv.NewOutput(w, termenv.WithProfile(profile))
}
