package irc

import "sync"

// EventKind names a lifecycle or protocol event.
type EventKind int

const (
	EventConnect    EventKind = iota // socket established, nothing read yet
	EventDisconnect                  // session ended, for any reason
	EventData                        // one raw protocol line
	EventMessage                     // decoded channel message
	EventPing                        // decoded server PING
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventData:
		return "data"
	case EventMessage:
		return "message"
	case EventPing:
		return "ping"
	default:
		return "unknown"
	}
}

// Event is delivered to handlers.  Only the payload field matching Kind
// is set: Line for EventData, Message for EventMessage, Token for
// EventPing.
type Event struct {
	Kind    EventKind
	Line    string
	Message ChannelMessage
	Token   string
}

// Handler receives events on the session's reader goroutine.  It must
// not block: while it runs, nothing else is read from the socket.
type Handler func(Event)

// Emitter is a per-instance publish/subscribe table.  The zero value is
// ready to use.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[EventKind][]Handler
}

// On registers h for kind.  Handlers run in registration order.  It is
// safe to call from any goroutine, including from inside a handler; a
// handler added during an emit first runs on the next event.
func (e *Emitter) On(kind EventKind, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[EventKind][]Handler)
	}
	e.handlers[kind] = append(e.handlers[kind], h)
}

// Count returns the number of handlers registered for kind.
func (e *Emitter) Count(kind EventKind) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[kind])
}

// Emit calls every handler for ev.Kind synchronously on the calling
// goroutine.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	hs := e.handlers[ev.Kind]
	e.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}
