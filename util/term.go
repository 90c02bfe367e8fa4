package util

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReadSecret prints prompt to stderr and reads a line from the terminal
// without echo.  It fails when stdin is not a terminal, since a piped
// stdin carries raw IRC lines rather than credentials.
func ReadSecret(prompt string) (string, error) {
	if !IsTerminal(os.Stdin) {
		return "", fmt.Errorf("cannot prompt for %q: stdin is not a terminal", prompt)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}
	return string(b), nil
}
