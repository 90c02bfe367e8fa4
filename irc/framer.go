package irc

import (
	"bytes"
	"strings"

	ircerr "ircline/internal/errors"
)

var crlf = []byte("\r\n")

// Framer turns a byte stream into CRLF-terminated protocol lines.  The
// trailing fragment of each chunk is kept and prefixed to the next one,
// so the lines produced do not depend on how the stream was split.
//
// A Framer is not safe for concurrent use; a session feeds it from its
// single reader goroutine.
type Framer struct {
	buf []byte
	max int
}

// NewFramer returns a Framer whose partial line may grow to at most
// maxLen bytes.  maxLen <= 0 disables the limit.
func NewFramer(maxLen int) *Framer {
	return &Framer{max: maxLen}
}

// Feed appends chunk and returns every line it completes, without the
// terminator.  Empty lines are dropped.  Invalid UTF-8 is replaced with
// U+FFFD.
//
// If the remaining partial line exceeds the limit, Feed still returns
// the complete lines it found, discards the partial line and reports
// ErrLineTooLong.
func (f *Framer) Feed(chunk []byte) ([]string, error) {
	// A terminator can straddle the previous chunk's last byte.
	scan := len(f.buf) - 1
	if scan < 0 {
		scan = 0
	}
	f.buf = append(f.buf, chunk...)

	var lines []string
	start := 0
	for {
		i := bytes.Index(f.buf[scan:], crlf)
		if i < 0 {
			break
		}
		end := scan + i
		if end > start {
			lines = append(lines, strings.ToValidUTF8(string(f.buf[start:end]), "\uFFFD"))
		}
		start = end + len(crlf)
		scan = start
	}

	if start > 0 {
		n := copy(f.buf, f.buf[start:])
		f.buf = f.buf[:n]
	}

	if f.max > 0 && len(f.buf) > f.max {
		f.buf = nil
		return lines, ircerr.ErrLineTooLong
	}
	return lines, nil
}

// Pending returns the buffered partial line.
func (f *Framer) Pending() string {
	return string(f.buf)
}
