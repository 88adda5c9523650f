// Package term owns the interactive terminal surface described in §6:
// raw-mode TTY setup and the CSI key decoder. Output rendering itself
// is the compositor package's job; this package only gets the
// terminal into a state the compositor can write to and turns raw
// input bytes into key events.
package term

import (
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// IsTerminal reports whether fd is attached to a real TTY, the
// precondition for entering interactive terminal mode at all.
func IsTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Raw records a file descriptor that EnterRaw put into raw mode (no
// line buffering, no echo; keypad application mode is not enabled
// here), so Restore can return it to its prior mode.
type Raw struct {
	fd    int
	state *term.State
}

// EnterRaw switches f into raw mode.
func EnterRaw(f *os.File) (*Raw, error) {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return &Raw{fd: fd, state: state}, nil
}

// Restore returns the terminal to its prior mode.
func (r *Raw) Restore() error {
	return term.Restore(r.fd, r.state)
}

// Profile reports the terminal's color capability, used to decide
// whether to emit 8-color SGR (this client never needs more, per
// §3's 8-color palette) versus degrade further on a dumb terminal.
func Profile() termenv.Profile {
	return termenv.NewOutput(os.Stdout).Profile
}
