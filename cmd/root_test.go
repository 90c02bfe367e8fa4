package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ircline/config"
	ircerr "ircline/internal/errors"
)

func runArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(context.Background(), args, nil, &out)
	return out.String(), err
}

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	out, err := runArgs(t, "--version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "ircline ") {
		t.Errorf("output = %q", out)
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	t.Setenv("IRCLINE_SERVER", "")
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			if _, err := runArgs(t, args...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	out, err := runArgs(t,
		"-n", "gobot", "-c", "#go,#irc", "-c", "#ops",
		"--reconnect-delay", "250", "--dry-run",
		"irc.example.net", "6697")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"server:     irc.example.net:6697",
		"nick:       gobot",
		"channels:   #go,#irc,#ops",
		"reconnect:  250ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExecute_DryRunNoReconnect(t *testing.T) {
	out, err := runArgs(t, "--no-reconnect", "--dry-run", "irc.example.net")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "reconnect:  off") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "irc.example.net:6667") {
		t.Errorf("default port missing: %q", out)
	}
}

func TestExecute_DryRunTunnel(t *testing.T) {
	out, err := runArgs(t, "-T", "admin@bastion:2222", "--dry-run", "irc.internal")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "tunnel:     admin@bastion:2222") {
		t.Errorf("output = %q", out)
	}
}

func TestExecute_BadTunnel(t *testing.T) {
	if _, err := runArgs(t, "-T", "admin@bastion:99999", "--dry-run", "irc.internal"); err == nil {
		t.Fatal("expected tunnel error")
	}
}

// TestExecute_EnvServer verifies IRCLINE_SERVER stands in for the
// positional argument and flags still override the environment.
func TestExecute_EnvServer(t *testing.T) {
	t.Setenv("IRCLINE_SERVER", "env.example.net")
	t.Setenv("IRCLINE_NICK", "envnick")

	out, err := runArgs(t, "-n", "flagnick", "--dry-run")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "env.example.net") || !strings.Contains(out, "flagnick") {
		t.Errorf("output = %q", out)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	t.Setenv("IRCLINE_SERVER", "")
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"missing server", []string{"-n", "bot", "--dry-run"}, "server"},
		{"port not a number", []string{"--dry-run", "irc.example.net", "abc"}, "port"},
		{"port out of range", []string{"--dry-run", "irc.example.net", "70000"}, "port"},
		{"channel with space", []string{"-c", "#a b", "--dry-run", "irc.example.net"}, "channel"},
		{"negative delay", []string{"--reconnect-delay=-1", "--dry-run", "irc.example.net"}, "reconnect-delay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runArgs(t, tt.args...)
			var cerr *ircerr.ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want ConfigError", err)
			}
			if !strings.HasPrefix(cerr.Field, tt.field) {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.field)
			}
		})
	}
}

func TestExecute_TooManyArgs(t *testing.T) {
	if _, err := runArgs(t, "--dry-run", "a", "1", "extra"); err == nil {
		t.Fatal("expected error for extra positional argument")
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	if _, err := runArgs(t, "--nonexistent-flag"); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestParsePositional(t *testing.T) {
	cfg := config.New("")
	if err := parsePositional(cfg, []string{"irc.example.net", "7000"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Server != "irc.example.net" || cfg.Port != 7000 {
		t.Errorf("got %s:%d", cfg.Server, cfg.Port)
	}

	cfg = config.New("keep")
	if err := parsePositional(cfg, nil); err != nil {
		t.Fatal(err)
	}
	if cfg.Server != "keep" {
		t.Errorf("Server = %q", cfg.Server)
	}
}

func TestPrintSummary_Delay(t *testing.T) {
	cfg := config.New("h")
	cfg.ReconnectDelay = 2 * time.Second
	var buf bytes.Buffer
	printSummary(&buf, cfg)
	if !strings.Contains(buf.String(), "reconnect:  2s") {
		t.Errorf("summary = %q", buf.String())
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name       string
		verbose    int
		timestamps bool
		wantStamp  bool
	}{
		{"plain", 1, false, false},
		{"flag", 1, true, true},
		{"debug", 3, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New("h")
			cfg.Verbose = tt.verbose
			cfg.Timestamps = tt.timestamps

			var buf bytes.Buffer
			newLogger(cfg, &buf).Info("hello")

			line := buf.String()
			if !strings.Contains(line, "[INF] hello") {
				t.Fatalf("log = %q", line)
			}
			if got := !strings.HasPrefix(line, "[INF]"); got != tt.wantStamp {
				t.Errorf("timestamped = %v, want %v (%q)", got, tt.wantStamp, line)
			}
		})
	}
}

func TestExecute_TimestampsFlag(t *testing.T) {
	if _, err := runArgs(t, "--timestamps", "--dry-run", "irc.example.net"); err != nil {
		t.Fatal(err)
	}
}
