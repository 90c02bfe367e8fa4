// Package config defines the connection configuration for an IRC
// client and helpers for parsing channel lists and tunnel specs.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	ircerr "ircline/internal/errors"
)

// Config holds every tuneable for one IRC client.  irc.NewClient keeps
// its own copy, so later changes to the caller's value have no effect.
type Config struct {
	// ── Server ───────────────────────────────────────────────────────
	Server string
	Port   int

	// ── Registration ─────────────────────────────────────────────────
	Username string // accepted for compatibility; USER is built from Nickname
	Password string // PASS is sent only when non-empty
	Nickname string // NICK and USER are sent only when non-empty
	Channels []string
	ClientID string // real-name field of USER

	// ── Lifecycle ────────────────────────────────────────────────────
	AutoConnect    bool
	AutoReconnect  bool
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	MaxLineLength  int // 0 disables the limit

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	MetricsAddr string // empty disables the HTTP endpoint
	Verbose     int
	Timestamps  bool // prefix log lines with the time of day
}

// New returns a Config for server with every default applied.
func New(server string) *Config {
	return &Config{
		Server:         server,
		Port:           DefaultPort,
		ClientID:       DefaultClientID,
		AutoConnect:    true,
		AutoReconnect:  true,
		ReconnectDelay: DefaultReconnectDelay,
		DialTimeout:    DefaultDialTimeout,
		MaxLineLength:  DefaultMaxLineLength,
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Channels = append([]string(nil), c.Channels...)
	return &cp
}

// ── Channel helpers ──────────────────────────────────────────────────

// ParseChannels splits a comma separated list such as "#go, #irc" into
// trimmed channel names, dropping empty entries.
func ParseChannels(spec string) []string {
	var out []string
	for _, c := range strings.Split(spec, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// JoinChannels flattens repeated --channel values that may themselves
// be comma separated.
func JoinChannels(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, ParseChannels(v)...)
	}
	return out
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration can be used to connect.  A
// missing server fails here rather than at dial time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server) == "" {
		return &ircerr.ConfigError{
			Field:   "server",
			Message: "is required",
			Hint:    "pass the IRC server as the first argument, e.g. ircline irc.libera.chat",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ircerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
			Hint:    fmt.Sprintf("plaintext IRC listens on %d", DefaultPort),
		}
	}
	if c.ReconnectDelay < 0 {
		return &ircerr.ConfigError{
			Field:   "reconnect-delay",
			Value:   c.ReconnectDelay.Milliseconds(),
			Message: "must not be negative",
		}
	}
	if c.MaxLineLength < 0 {
		return &ircerr.ConfigError{
			Field:   "max-line",
			Value:   c.MaxLineLength,
			Message: "must not be negative",
			Hint:    "use 0 to disable the limit",
		}
	}
	for _, ch := range c.Channels {
		if strings.ContainsAny(ch, " ,\r\n\x07") {
			return &ircerr.ConfigError{
				Field:   "channel",
				Value:   ch,
				Message: "channel names cannot contain spaces, commas, control-G or line breaks",
			}
		}
	}
	for _, f := range []struct{ name, value string }{
		{"nick", c.Nickname},
		{"password", c.Password},
		{"client-id", c.ClientID},
	} {
		if strings.ContainsAny(f.value, "\r\n") {
			return &ircerr.ConfigError{
				Field:   f.name,
				Message: "must not contain line breaks",
			}
		}
	}
	if c.TunnelEnabled && c.TunnelHost == "" {
		return &ircerr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: "tunnel host is required",
			Hint:    "expected [user@]host[:port]",
		}
	}
	return nil
}
