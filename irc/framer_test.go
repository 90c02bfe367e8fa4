package irc

import (
	"errors"
	"reflect"
	"testing"

	ircerr "ircline/internal/errors"
)

const framerStream = "PING :abc\r\n:alice!alice@host PRIVMSG #go :hi: there\r\n\r\n:server 001 bot :Welcome\r\n"

var framerWant = []string{
	"PING :abc",
	":alice!alice@host PRIVMSG #go :hi: there",
	":server 001 bot :Welcome",
}

func feedAll(t *testing.T, f *Framer, chunks ...string) []string {
	t.Helper()
	var out []string
	for _, c := range chunks {
		lines, err := f.Feed([]byte(c))
		if err != nil {
			t.Fatalf("Feed(%q): %v", c, err)
		}
		out = append(out, lines...)
	}
	return out
}

func TestFramer_WholeMessage(t *testing.T) {
	f := NewFramer(0)
	got := feedAll(t, f, framerStream)
	if !reflect.DeepEqual(got, framerWant) {
		t.Errorf("got %q, want %q", got, framerWant)
	}
	if f.Pending() != "" {
		t.Errorf("Pending = %q, want empty", f.Pending())
	}
}

// TestFramer_SplitInvariance feeds the stream cut at every pair of
// positions and expects the same lines each time.
func TestFramer_SplitInvariance(t *testing.T) {
	n := len(framerStream)
	for i := 0; i <= n; i++ {
		for j := i; j <= n; j++ {
			f := NewFramer(0)
			got := feedAll(t, f, framerStream[:i], framerStream[i:j], framerStream[j:])
			if !reflect.DeepEqual(got, framerWant) {
				t.Fatalf("split at %d,%d: got %q, want %q", i, j, got, framerWant)
			}
			if f.Pending() != "" {
				t.Fatalf("split at %d,%d: Pending = %q", i, j, f.Pending())
			}
		}
	}
}

func TestFramer_ByteAtATime(t *testing.T) {
	f := NewFramer(0)
	var chunks []string
	for i := 0; i < len(framerStream); i++ {
		chunks = append(chunks, framerStream[i:i+1])
	}
	if got := feedAll(t, f, chunks...); !reflect.DeepEqual(got, framerWant) {
		t.Errorf("got %q, want %q", got, framerWant)
	}
}

func TestFramer_NoTerminator(t *testing.T) {
	f := NewFramer(0)
	lines, err := f.Feed([]byte(":server NOTICE * :partial"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Errorf("got %d lines, want 0", len(lines))
	}
	if f.Pending() != ":server NOTICE * :partial" {
		t.Errorf("Pending = %q", f.Pending())
	}
}

func TestFramer_TrailingFragmentKept(t *testing.T) {
	f := NewFramer(0)
	got := feedAll(t, f, "PING :one\r\nPING :tw")
	if !reflect.DeepEqual(got, []string{"PING :one"}) {
		t.Fatalf("got %q", got)
	}
	if f.Pending() != "PING :tw" {
		t.Fatalf("Pending = %q", f.Pending())
	}
	got = feedAll(t, f, "o\r\n")
	if !reflect.DeepEqual(got, []string{"PING :two"}) {
		t.Errorf("got %q", got)
	}
}

func TestFramer_TerminatorAcrossChunks(t *testing.T) {
	f := NewFramer(0)
	if got := feedAll(t, f, "PING :x\r"); len(got) != 0 {
		t.Fatalf("lone CR should not complete a line, got %q", got)
	}
	if got := feedAll(t, f, "\nPING :y\r\n"); !reflect.DeepEqual(got, []string{"PING :x", "PING :y"}) {
		t.Errorf("got %q", got)
	}
}

func TestFramer_EmptySegmentsDropped(t *testing.T) {
	f := NewFramer(0)
	if got := feedAll(t, f, "\r\n\r\nA\r\n\r\n"); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("got %q, want [A]", got)
	}
}

func TestFramer_BareLFIsNotATerminator(t *testing.T) {
	f := NewFramer(0)
	got := feedAll(t, f, "a\nb\r\n")
	if !reflect.DeepEqual(got, []string{"a\nb"}) {
		t.Errorf("got %q", got)
	}
}

func TestFramer_InvalidUTF8Replaced(t *testing.T) {
	f := NewFramer(0)
	got := feedAll(t, f, "caf\xe9\r\n")
	if !reflect.DeepEqual(got, []string{"caf\uFFFD"}) {
		t.Errorf("got %q", got)
	}
}

func TestFramer_MaxLength(t *testing.T) {
	tests := []struct {
		name      string
		max       int
		input     string
		wantLines []string
		wantErr   bool
	}{
		{"under limit", 8, "12345678", nil, false},
		{"over limit", 8, "123456789", nil, true},
		{"complete lines before overflow", 4, "ab\r\n123456", []string{"ab"}, true},
		{"long complete line is fine", 4, "123456789\r\n", []string{"123456789"}, false},
		{"unbounded", 0, string(make([]byte, 1<<16)), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFramer(tt.max)
			lines, err := f.Feed([]byte(tt.input))
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ircerr.ErrLineTooLong) {
				t.Errorf("err = %v, want ErrLineTooLong", err)
			}
			if !reflect.DeepEqual(lines, tt.wantLines) {
				t.Errorf("lines = %q, want %q", lines, tt.wantLines)
			}
			if err != nil && f.Pending() != "" {
				t.Errorf("partial line should be discarded on overflow")
			}
		})
	}
}

func BenchmarkFramer_Feed(b *testing.B) {
	chunk := []byte(framerStream)
	f := NewFramer(0)
	b.SetBytes(int64(len(chunk)))
	for i := 0; i < b.N; i++ {
		f.Feed(chunk) //nolint:errcheck
	}
}
