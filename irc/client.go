// Package irc is a minimal IRC client: it keeps one connection to a
// server alive, registers, joins channels, answers PING and reports
// what it reads as events.
//
// Layers (bottom → top):
//
//	Framer  →  Decode  →  Emitter  →  Session  →  Client
//
// A Session is a single connection attempt and is never reused.  The
// Client supervises sessions: when one closes it schedules a fresh one
// after a constant delay, forever, until it is closed.
package irc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ircline/config"
	ircerr "ircline/internal/errors"
	"ircline/internal/metrics"
	"ircline/internal/retry"
	"ircline/internal/transport"
	"ircline/util"
)

// Client owns the reconnect loop and the external event subscriptions,
// which survive across sessions.
type Client struct {
	cfg     *config.Config
	dialer  transport.Dialer
	logger  *util.Logger
	metrics *metrics.Collector
	policy  retry.Constant
	events  Emitter

	mu      sync.Mutex
	base    context.Context // parent context for automatic reconnects
	session *Session
	timer   *retry.Timer
	closed  bool
}

// NewClient validates cfg and returns an idle client that works on a
// copy of it.  A nil dialer
// dials plain TCP; logger and m may be nil.
func NewClient(cfg *config.Config, dialer transport.Dialer, logger *util.Logger, m *metrics.Collector) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("irc: nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dialer == nil {
		dialer = &transport.TCPDialer{Timeout: cfg.DialTimeout}
	}
	cfg = cfg.Clone()
	return &Client{
		cfg:     cfg,
		dialer:  dialer,
		logger:  logger.Named("irc"),
		metrics: m,
		policy:  retry.Constant{Delay: cfg.ReconnectDelay},
		base:    context.Background(),
	}, nil
}

// ── subscriptions ────────────────────────────────────────────────────

// On registers h for kind.  Handlers run after the session's built-in
// handlers, in registration order, on the reader goroutine.
func (c *Client) On(kind EventKind, h Handler) { c.events.On(kind, h) }

// OnConnect registers fn for EventConnect.
func (c *Client) OnConnect(fn func()) {
	c.On(EventConnect, func(Event) { fn() })
}

// OnDisconnect registers fn for EventDisconnect.
func (c *Client) OnDisconnect(fn func()) {
	c.On(EventDisconnect, func(Event) { fn() })
}

// OnData registers fn for every raw line.
func (c *Client) OnData(fn func(line string)) {
	c.On(EventData, func(ev Event) { fn(ev.Line) })
}

// OnMessage registers fn for decoded channel messages.
func (c *Client) OnMessage(fn func(ChannelMessage)) {
	c.On(EventMessage, func(ev Event) { fn(ev.Message) })
}

// OnPing registers fn for PING tokens.  The PONG reply is sent before
// fn runs.
func (c *Client) OnPing(fn func(token string)) {
	c.On(EventPing, func(ev Event) { fn(ev.Token) })
}

// ── lifecycle ────────────────────────────────────────────────────────

// Run connects when AutoConnect is set and then supervises sessions
// until ctx is cancelled, at which point it closes the client.
func (c *Client) Run(ctx context.Context) error {
	c.mu.Lock()
	c.base = ctx
	c.mu.Unlock()

	if c.cfg.AutoConnect {
		if err := c.Connect(ctx); err != nil {
			return err
		}
	}

	<-ctx.Done()
	err := c.Close()
	if werr := c.wait(config.DefaultGracePeriod); werr != nil {
		return ircerr.Join(err, werr)
	}
	return err
}

// Connect starts a new session, replacing a closed one.  A pending
// reconnect is cancelled.  It fails if a session is already live.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ircerr.ErrClosed
	}
	if c.session != nil && c.session.State() != StateClosed {
		state := c.session.State()
		c.mu.Unlock()
		return fmt.Errorf("irc: session already %s", state)
	}
	c.timer.Stop()
	c.timer = nil

	s := NewSession(c.cfg, c.dialer, &c.events, c.logger, c.metrics)
	s.onClose = c.sessionClosed
	c.session = s
	c.mu.Unlock()

	return s.Connect(ctx)
}

// sessionClosed runs on the closing session's reader goroutine after
// its disconnect handlers.
func (c *Client) sessionClosed(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.session != s || !c.cfg.AutoReconnect {
		return
	}

	c.logger.Info("reconnecting to %s in %v", s.Addr(), c.policy.Next(1))
	c.metrics.ReconnectScheduled()
	c.timer = c.policy.Schedule(c.reconnect)
}

func (c *Client) reconnect() {
	c.mu.Lock()
	ctx := c.base
	c.mu.Unlock()

	if err := c.Connect(ctx); err != nil {
		c.logger.Verbose("reconnect skipped: %v", err)
	}
}

// Close stops the reconnect loop and closes the live session.  It does
// not wait for the session's disconnect handlers, so it is safe to call
// from inside a handler.  Close is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.timer.Stop()
	c.timer = nil
	s := c.session
	c.mu.Unlock()

	if s == nil {
		return nil
	}
	return s.Close()
}

// wait blocks until the live session is fully closed or d elapses.
func (c *Client) wait(d time.Duration) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.Done():
		return nil
	case <-t.C:
		return fmt.Errorf("irc: timeout waiting for %s to close", s.Addr())
	}
}

// Send writes line to the live session.
func (c *Client) Send(line string) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s == nil {
		return ircerr.ErrNotConnected
	}
	return s.Send(line)
}

// State reports the live session's state, or StateIdle before the
// first Connect.
func (c *Client) State() State {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s == nil {
		return StateIdle
	}
	return s.State()
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() *config.Config { return c.cfg.Clone() }
