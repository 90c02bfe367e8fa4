package errors

import (
	"fmt"
	"io"
	"net"
	"testing"
)

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "dial", Addr: "irc.example.net:6667", Err: io.EOF, Retryable: true},
			want: "dial irc.example.net:6667: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "read", Addr: "10.0.0.5:6667", Err: fmt.Errorf("connection reset by peer")},
			want: "read 10.0.0.5:6667: connection reset by peer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNetworkError_Unwrap(t *testing.T) {
	err := &NetworkError{Op: "frame", Addr: "x", Err: ErrLineTooLong}
	if !Is(err, ErrLineTooLong) {
		t.Error("should unwrap to ErrLineTooLong")
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "bastion.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake bastion.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !Is(err, err.Err) {
		t.Error("should unwrap to inner error")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "port",
				Value:   99999,
				Message: "out of range 1-65535",
				Hint:    "IRC servers usually listen on 6667",
			},
			want: "config: --port=99999: out of range 1-65535\n  hint: IRC servers usually listen on 6667",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "server",
				Message: "is required",
			},
			want: "config: --server: is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("connection refused")
	err := Wrap("dial", "10.0.0.1:6667", inner)

	if err.Op != "dial" || err.Addr != "10.0.0.1:6667" {
		t.Errorf("wrong fields: Op=%q Addr=%q", err.Op, err.Addr)
	}
	if err.Retryable {
		t.Error("plain error should not be retryable")
	}
	if !Is(err, inner) {
		t.Error("should unwrap to inner error")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF, Retryable: true}, true},
		{"non-retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF}, false},
		{"plain error", fmt.Errorf("boom"), false},
		{"temporary dns", &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{IsTemporary: true}}, true},
		{"dns timeout", &net.DNSError{IsTimeout: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrNotConnected, ErrClosed, ErrLineTooLong,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
