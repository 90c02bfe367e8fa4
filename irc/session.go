package irc

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"ircline/config"
	ircerr "ircline/internal/errors"
	"ircline/internal/metrics"
	"ircline/internal/transport"
	"ircline/util"
)

// State is a session lifecycle stage.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Session is one connection attempt: Idle → Connecting → Connected →
// Closed.  Closed is terminal; reconnecting means building a new
// Session.
//
// Every handler, built-in or external, runs on the session's reader
// goroutine.  Send may be called from any goroutine.
type Session struct {
	cfg     *config.Config
	addr    string
	dialer  transport.Dialer
	logger  *util.Logger
	metrics *metrics.Collector

	events  Emitter  // built-in handlers, owned by this instance
	shared  *Emitter // external subscribers, notified after events
	onClose func(*Session)

	state  atomic.Int32
	framer *Framer
	done   chan struct{}

	connMu  sync.Mutex // guards conn, cancel and closing
	conn    net.Conn
	cancel  context.CancelFunc
	closing bool

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewSession builds an idle session for cfg.  Events are delivered to
// the session's built-in handlers first and then to shared, which may
// be nil.  A nil dialer dials plain TCP.
func NewSession(cfg *config.Config, dialer transport.Dialer, shared *Emitter, logger *util.Logger, m *metrics.Collector) *Session {
	if dialer == nil {
		dialer = &transport.TCPDialer{Timeout: cfg.DialTimeout}
	}
	s := &Session{
		cfg:     cfg,
		addr:    util.FormatAddr(cfg.Server, cfg.Port),
		dialer:  dialer,
		logger:  logger.Named("session"),
		metrics: m,
		shared:  shared,
		framer:  NewFramer(cfg.MaxLineLength),
		done:    make(chan struct{}),
	}
	s.events.On(EventPing, s.pong)
	s.events.On(EventConnect, s.register)
	return s
}

// State returns the current lifecycle stage.
func (s *Session) State() State { return State(s.state.Load()) }

// Addr returns the server address this session dials.
func (s *Session) Addr() string { return s.addr }

// Done is closed once the session has reached StateClosed and every
// disconnect handler has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Connect starts dialling in the background and returns immediately.
// The outcome is reported through EventConnect or EventDisconnect.
func (s *Session) Connect(ctx context.Context) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateConnecting)) {
		return fmt.Errorf("connect: session is %s", s.State())
	}
	ctx, cancel := context.WithCancel(ctx)
	s.connMu.Lock()
	s.cancel = cancel
	s.connMu.Unlock()
	go s.run(ctx)
	return nil
}

// Close ends the session.  A connected session emits EventDisconnect
// from its reader goroutine; Close does not wait for that, use Done.
func (s *Session) Close() error {
	if s.state.CompareAndSwap(int32(StateIdle), int32(StateClosed)) {
		s.closeOnce.Do(func() { close(s.done) })
		return nil
	}

	s.connMu.Lock()
	s.closing = true
	conn := s.conn
	cancel := s.cancel
	s.connMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(); err != nil && !util.IsClosedErr(err) {
			return err
		}
	}
	return nil
}

// Send writes line followed by CRLF.  A trailing CR/LF in line is
// stripped first so the terminator is never doubled.  Nothing is
// queued: on a session without an open socket Send returns
// ErrNotConnected.
func (s *Session) Send(line string) error {
	line = strings.TrimRight(line, "\r\n")

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn == nil {
		return ircerr.ErrNotConnected
	}

	n, err := conn.Write([]byte(line + "\r\n"))
	s.metrics.BytesSent(n)
	if err != nil {
		return ircerr.Wrap("write", s.addr, err)
	}
	s.metrics.LineSent()
	s.logger.Debug("-> %s", line)
	return nil
}

// ── lifecycle ────────────────────────────────────────────────────────

func (s *Session) run(ctx context.Context) {
	s.logger.Verbose("connecting to %s", s.addr)

	conn, err := s.dialer.Dial(ctx, "tcp", s.addr)
	if err != nil {
		s.shutdown(ircerr.Wrap("dial", s.addr, err))
		return
	}

	s.connMu.Lock()
	if s.closing {
		s.connMu.Unlock()
		conn.Close()
		s.shutdown(ircerr.ErrClosed)
		return
	}
	s.conn = conn
	s.connMu.Unlock()

	s.state.Store(int32(StateConnected))
	s.metrics.SessionOpened()
	s.logger.Info("connected to %s", s.addr)
	s.emit(Event{Kind: EventConnect})

	s.shutdown(s.readLoop(conn))
}

// readLoop feeds the framer until the socket fails and returns the
// reason.
func (s *Session) readLoop(conn net.Conn) error {
	bufp := util.GetBuf()
	defer util.PutBuf(bufp)
	buf := *bufp

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			s.metrics.BytesReceived(n)
			lines, ferr := s.framer.Feed(buf[:n])
			for _, line := range lines {
				s.dispatch(line)
			}
			if ferr != nil {
				return ircerr.Wrap("frame", s.addr, ferr)
			}
		}
		if err != nil {
			return ircerr.Wrap("read", s.addr, err)
		}
	}
}

// dispatch emits data for every line, then the decoded event if any.
func (s *Session) dispatch(line string) {
	s.metrics.LineReceived()
	s.logger.Debug("<- %s", line)
	s.emit(Event{Kind: EventData, Line: line})

	switch ev := Decode(line).(type) {
	case ChannelMessage:
		s.metrics.MessageReceived()
		s.emit(Event{Kind: EventMessage, Message: ev})
	case KeepAlive:
		s.emit(Event{Kind: EventPing, Token: ev.Token})
	}
}

func (s *Session) emit(ev Event) {
	s.events.Emit(ev)
	s.shared.Emit(ev)
}

// shutdown releases the socket, then emits EventDisconnect exactly once.
func (s *Session) shutdown(cause error) {
	s.closeOnce.Do(func() {
		s.connMu.Lock()
		conn := s.conn
		requested := s.closing
		cancel := s.cancel
		s.conn = nil
		s.closing = true
		s.connMu.Unlock()

		if conn != nil {
			conn.Close()
		}
		if cancel != nil {
			cancel()
		}
		s.state.Store(int32(StateClosed))

		switch {
		case requested:
			s.logger.Verbose("closed %s", s.addr)
		case util.IsClosedErr(cause):
			s.logger.Info("connection to %s closed by peer", s.addr)
		case ircerr.IsRetryable(cause):
			s.logger.Info("%v", cause)
			s.metrics.RecordError(cause.Error())
		default:
			s.logger.Warn("%v", cause)
			s.metrics.RecordError(cause.Error())
		}

		s.metrics.SessionClosed(conn != nil)
		s.emit(Event{Kind: EventDisconnect})
		if s.onClose != nil {
			s.onClose(s)
		}
		close(s.done)
	})
}

// ── built-in handlers ────────────────────────────────────────────────

func (s *Session) pong(ev Event) {
	if err := s.Send("PONG " + ev.Token); err != nil {
		s.logger.Verbose("pong: %v", err)
		return
	}
	s.metrics.PingAnswered()
}

// register sends the registration lines.  USER reuses the nickname as
// the username; the configured Username is not sent.
func (s *Session) register(Event) {
	var lines []string
	if s.cfg.Password != "" {
		lines = append(lines, "PASS "+s.cfg.Password)
	}
	if s.cfg.Nickname != "" {
		clientID := s.cfg.ClientID
		if clientID == "" {
			clientID = config.DefaultClientID
		}
		lines = append(lines,
			"NICK "+s.cfg.Nickname,
			fmt.Sprintf("USER %s 8 * :%s", s.cfg.Nickname, clientID))
	}
	if len(s.cfg.Channels) > 0 {
		lines = append(lines, "JOIN "+strings.Join(s.cfg.Channels, ","))
	}

	for _, line := range lines {
		if err := s.Send(line); err != nil {
			s.logger.Verbose("register: %v", err)
			return
		}
	}
}
