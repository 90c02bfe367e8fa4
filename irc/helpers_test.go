package irc

import (
	"bufio"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"ircline/config"
)

// fakeServer is a loopback IRC server that hands every accepted
// connection to the test.
type fakeServer struct {
	ln    net.Listener
	conns chan *serverConn
}

type serverConn struct {
	net.Conn
	r          *bufio.Reader
	acceptedAt time.Time
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeServer{ln: ln, conns: make(chan *serverConn, 16)}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			fs.conns <- &serverConn{Conn: c, r: bufio.NewReader(c), acceptedAt: time.Now()}
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		for {
			select {
			case c := <-fs.conns:
				c.Close()
			default:
				return
			}
		}
	})
	return fs
}

func (fs *fakeServer) port() int { return fs.ln.Addr().(*net.TCPAddr).Port }

// accept waits for the next client connection.
func (fs *fakeServer) accept(t *testing.T) *serverConn {
	t.Helper()
	select {
	case c := <-fs.conns:
		t.Cleanup(func() { c.Close() })
		return c
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for client connection")
		return nil
	}
}

// expectNoAccept fails if a client connects within d.
func (fs *fakeServer) expectNoAccept(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case c := <-fs.conns:
		c.Close()
		t.Fatal("unexpected client connection")
	case <-time.After(d):
	}
}

// readLine returns the next line sent by the client without its CRLF.
func (c *serverConn) readLine(t *testing.T) string {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(3 * time.Second)) //nolint:errcheck
	line, err := c.r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading client line: %v", err)
	}
	if !strings.HasSuffix(line, "\r\n") {
		t.Fatalf("client line %q not CRLF terminated", line)
	}
	return strings.TrimSuffix(line, "\r\n")
}

func (c *serverConn) send(t *testing.T, s string) {
	t.Helper()
	if _, err := c.Write([]byte(s)); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

// freePort returns a loopback port with nothing listening on it.
func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func testConfig(port int) *config.Config {
	cfg := config.New("127.0.0.1")
	cfg.Port = port
	cfg.ReconnectDelay = 50 * time.Millisecond
	cfg.DialTimeout = 2 * time.Second
	return cfg
}

// recorder collects events from any goroutine.
type recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan Event
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan Event, 256)}
}

func (r *recorder) handler(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.notify <- ev
}

// attach subscribes r to every event kind on e.
func (r *recorder) attach(e interface{ On(EventKind, Handler) }) {
	for _, k := range []EventKind{EventConnect, EventDisconnect, EventData, EventMessage, EventPing} {
		e.On(k, r.handler)
	}
}

// waitFor returns the next event of kind, skipping others.
func (r *recorder) waitFor(t *testing.T, kind EventKind) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-r.notify:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s event", kind)
			return Event{}
		}
	}
}

func (r *recorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}
