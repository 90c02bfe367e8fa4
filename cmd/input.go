package cmd

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"

	ircerr "ircline/internal/errors"
	"ircline/irc"
	"ircline/util"
)

const inputPrompt = "> "

// lineSource is where raw IRC lines typed by the user come from.  A
// terminal gets line editing and history; anything else is scanned.
type lineSource interface {
	ReadLine() (string, error)
	// Writer is where event output should go so that it does not
	// clobber a prompt being edited.
	Writer() io.Writer
	// ErrWriter is where log lines go.
	ErrWriter() io.Writer
	Interactive() bool
	Close() error
}

func newLineSource(in *os.File, out io.Writer, tty bool) (lineSource, error) {
	if !tty {
		return newScannerSource(in, out), nil
	}
	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:                 inputPrompt,
		HistoryLimit:           500,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		// Terminals readline cannot drive still work line by line.
		return newScannerSource(in, out), nil
	}
	return &readlineSource{rl: rl}, nil
}

// ── readline ─────────────────────────────────────────────────────────

type readlineSource struct {
	rl *readline.Instance
}

func (s *readlineSource) ReadLine() (string, error) {
	line, err := s.rl.Readline()
	if err != nil {
		if ircerr.Is(err, readline.ErrInterrupt) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(line) != "" {
		s.rl.SaveToHistory(line) //nolint:errcheck
	}
	return line, nil
}

func (s *readlineSource) Writer() io.Writer    { return s.rl.Stdout() }
func (s *readlineSource) ErrWriter() io.Writer { return s.rl.Stderr() }
func (s *readlineSource) Interactive() bool    { return true }
func (s *readlineSource) Close() error         { return s.rl.Close() }

// ── scanner ──────────────────────────────────────────────────────────

type scannerSource struct {
	sc  *bufio.Scanner
	out io.Writer
	err io.Writer
}

func newScannerSource(in io.Reader, out io.Writer) *scannerSource {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, util.DefaultBufSize), 64*1024)
	return &scannerSource{sc: sc, out: out, err: os.Stderr}
}

func (s *scannerSource) ReadLine() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scannerSource) Writer() io.Writer    { return s.out }
func (s *scannerSource) ErrWriter() io.Writer { return s.err }
func (s *scannerSource) Interactive() bool    { return false }
func (s *scannerSource) Close() error         { return nil }

// ── forwarding ───────────────────────────────────────────────────────

// sender is the part of *irc.Client the forwarder drives.
type sender interface {
	Send(line string) error
	Connect(ctx context.Context) error
}

var _ sender = (*irc.Client)(nil)

// forwardInput sends every line from src to the server until src is
// exhausted or the user types /quit, which calls quit.  When ready is
// non-nil nothing is read before it is closed.
func forwardInput(ctx context.Context, src lineSource, client sender, ready <-chan struct{}, quit context.CancelFunc, logger *util.Logger) {
	if ready != nil {
		select {
		case <-ready:
		case <-ctx.Done():
			return
		}
	}

	for {
		line, err := src.ReadLine()
		if err != nil {
			if ircerr.Is(err, io.EOF) {
				if src.Interactive() {
					quit()
				}
				return
			}
			logger.Error("input: %v", err)
			return
		}
		if ctx.Err() != nil {
			return
		}

		switch cmd := strings.TrimSpace(line); cmd {
		case "":
			continue
		case "/quit":
			quit()
			return
		case "/connect":
			if err := client.Connect(ctx); err != nil {
				logger.Warn("connect: %v", err)
			}
			continue
		}

		if err := client.Send(line); err != nil {
			if ircerr.Is(err, ircerr.ErrNotConnected) {
				logger.Warn("not connected, dropped: %s", line)
				continue
			}
			logger.Warn("send: %v", err)
		}
	}
}
