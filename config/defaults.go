package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, environment loading and New.

const (
	// DefaultPort is the plaintext IRC port.
	DefaultPort = 6667

	// DefaultReconnectDelay is the constant wait between a disconnect
	// and the next connection attempt.
	DefaultReconnectDelay = 5000 * time.Millisecond

	// DefaultClientID is sent as the real-name field of USER.
	DefaultClientID = "ircline IRC bot"

	// DefaultDialTimeout bounds a single TCP (or tunnel) dial.
	DefaultDialTimeout = 30 * time.Second

	// DefaultMaxLineLength caps the partial-line buffer.  RFC 1459 lines
	// are 512 bytes and IRCv3 tags add up to 8191 more, so 64 KiB only
	// trips on a peer that never sends CRLF.
	DefaultMaxLineLength = 64 * 1024

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22
)

// DefaultGracePeriod is how long Close waits for the live session's
// disconnect handlers to finish.
const DefaultGracePeriod = 5 * time.Second
