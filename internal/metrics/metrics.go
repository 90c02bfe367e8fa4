// Package metrics provides lightweight, lock-free counters for an IRC
// client and exports them to Prometheus.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one IRC client across all of
// its sessions.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	sessionsActive atomic.Int64
	sessionsTotal  atomic.Int64
	disconnects    atomic.Int64
	reconnects     atomic.Int64
	linesIn        atomic.Int64
	linesOut       atomic.Int64
	messagesIn     atomic.Int64
	pingsAnswered  atomic.Int64
	bytesIn        atomic.Int64
	bytesOut       atomic.Int64
	errorsTotal    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastPing     time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened records a socket reaching the Connected state.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed records a disconnect.  wasOpen is false when the dial
// itself failed, so the active gauge is only decremented for sessions
// that were counted by SessionOpened.
func (c *Collector) SessionClosed(wasOpen bool) {
	if c == nil {
		return
	}
	if wasOpen {
		c.sessionsActive.Add(-1)
	}
	c.disconnects.Add(1)
}

// ReconnectScheduled records a retry timer being armed.
func (c *Collector) ReconnectScheduled() {
	if c == nil {
		return
	}
	c.reconnects.Add(1)
}

// ActiveSessions returns the number of currently connected sessions.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime count of established sessions.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// Disconnects returns the lifetime disconnect count.
func (c *Collector) Disconnects() int64 {
	if c == nil {
		return 0
	}
	return c.disconnects.Load()
}

// Reconnects returns how many retries have been scheduled.
func (c *Collector) Reconnects() int64 {
	if c == nil {
		return 0
	}
	return c.reconnects.Load()
}

// ── Protocol metrics ─────────────────────────────────────────────────

// LineReceived records one framed inbound line.
func (c *Collector) LineReceived() {
	if c == nil {
		return
	}
	c.linesIn.Add(1)
}

// LineSent records one outbound line that was written in full.
func (c *Collector) LineSent() {
	if c == nil {
		return
	}
	c.linesOut.Add(1)
}

// BytesSent records n bytes written to the socket, including those of
// a write that then failed.
func (c *Collector) BytesSent(n int) {
	if c == nil {
		return
	}
	c.bytesOut.Add(int64(n))
}

// MessageReceived records a decoded channel message.
func (c *Collector) MessageReceived() {
	if c == nil {
		return
	}
	c.messagesIn.Add(1)
}

// PingAnswered records a PONG reply.
func (c *Collector) PingAnswered() {
	if c == nil {
		return
	}
	c.pingsAnswered.Add(1)
	c.mu.Lock()
	c.lastPing = time.Now()
	c.mu.Unlock()
}

// BytesReceived records n bytes read from the socket.
func (c *Collector) BytesReceived(n int) {
	if c == nil {
		return
	}
	c.bytesIn.Add(int64(n))
}

// LinesIn returns the total number of framed inbound lines.
func (c *Collector) LinesIn() int64 {
	if c == nil {
		return 0
	}
	return c.linesIn.Load()
}

// LinesOut returns the total number of lines written.
func (c *Collector) LinesOut() int64 {
	if c == nil {
		return 0
	}
	return c.linesOut.Load()
}

// PingsAnswered returns the total number of PONG replies sent.
func (c *Collector) PingsAnswered() int64 {
	if c == nil {
		return 0
	}
	return c.pingsAnswered.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	SessionsActive   int64  `json:"sessions_active"`
	SessionsTotal    int64  `json:"sessions_total"`
	Disconnects      int64  `json:"disconnects"`
	Reconnects       int64  `json:"reconnects"`
	LinesIn          int64  `json:"lines_in"`
	LinesOut         int64  `json:"lines_out"`
	MessagesIn       int64  `json:"messages_in"`
	PingsAnswered    int64  `json:"pings_answered"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastPing         string `json:"last_ping,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:         time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive: c.sessionsActive.Load(),
		SessionsTotal:  c.sessionsTotal.Load(),
		Disconnects:    c.disconnects.Load(),
		Reconnects:     c.reconnects.Load(),
		LinesIn:        c.linesIn.Load(),
		LinesOut:       c.linesOut.Load(),
		MessagesIn:     c.messagesIn.Load(),
		PingsAnswered:  c.pingsAnswered.Load(),
		BytesIn:        c.bytesIn.Load(),
		BytesOut:       c.bytesOut.Load(),
		ErrorsTotal:    c.errorsTotal.Load(),
	}
	if !c.lastPing.IsZero() {
		s.LastPing = c.lastPing.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
