package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go, applied by New)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the IRCLINE_ prefix.  Boolean values
// accept "1", "true", "yes" and "0", "false", "no" (case-insensitive);
// anything else leaves the field untouched.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// parseable env vars override the existing value.  Call it BEFORE flag
// parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("IRCLINE_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := envInt("IRCLINE_PORT"); v > 0 {
		cfg.Port = v
	}

	// Registration
	if v := os.Getenv("IRCLINE_USER"); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv("IRCLINE_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("IRCLINE_NICK"); v != "" {
		cfg.Nickname = v
	}
	if v := os.Getenv("IRCLINE_CHANNELS"); v != "" {
		cfg.Channels = ParseChannels(v)
	}
	if v := os.Getenv("IRCLINE_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}

	// Lifecycle
	if b, ok := envBool("IRCLINE_AUTO_CONNECT"); ok {
		cfg.AutoConnect = b
	}
	if b, ok := envBool("IRCLINE_AUTO_RECONNECT"); ok {
		cfg.AutoReconnect = b
	}
	if v, ok := envNonNegative("IRCLINE_RECONNECT_DELAY"); ok {
		cfg.ReconnectDelay = time.Duration(v) * time.Millisecond
	}
	if v := envInt("IRCLINE_DIAL_TIMEOUT"); v > 0 {
		cfg.DialTimeout = time.Duration(v) * time.Second
	}
	if v, ok := envNonNegative("IRCLINE_MAX_LINE"); ok {
		cfg.MaxLineLength = v
	}

	// SSH tunnel
	if v := os.Getenv("IRCLINE_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("IRCLINE_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if b, ok := envBool("IRCLINE_SSH_PASSWORD"); ok {
		cfg.SSHPassword = b
	}
	if b, ok := envBool("IRCLINE_SSH_AGENT"); ok {
		cfg.UseSSHAgent = b
	}
	if b, ok := envBool("IRCLINE_STRICT_HOSTKEY"); ok {
		cfg.StrictHostKey = b
	}
	if v := os.Getenv("IRCLINE_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := os.Getenv("IRCLINE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := envInt("IRCLINE_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if b, ok := envBool("IRCLINE_TIMESTAMPS"); ok {
		cfg.Timestamps = b
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// envNonNegative distinguishes an explicit "0" from an unset variable.
func envNonNegative(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func envBool(key string) (value, ok bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes":
		return true, true
	case "0", "false", "no":
		return false, true
	}
	return false, false
}
