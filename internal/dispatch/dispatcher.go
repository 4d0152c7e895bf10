// Package dispatch routes inbound paint/chat frames to their handlers and fans
// the resulting frames out to connected sessions.
//
// A Dispatcher owns the session registry, the username allocator and the
// paint history. It is not safe for concurrent use: the caller must deliver
// connect, message and disconnect events one at a time, which is what gives
// every handler its atomicity and keeps broadcasts from one sender in order.
package dispatch

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/Tyrowin/gopaint/internal/history"
	"github.com/Tyrowin/gopaint/internal/protocol"
	"github.com/Tyrowin/gopaint/internal/session"
	"github.com/Tyrowin/gopaint/internal/username"
)

const reasonUnregistered = "unregistered user"

// Transport delivers one outbound frame to one session. Send must not block
// on network I/O; an error affects only that recipient.
type Transport interface {
	Send(id session.ID, frame string) error
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for lifecycle and delivery messages.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Dispatcher is the single owner of all shared paint server state.
type Dispatcher struct {
	transport Transport
	registry  *session.Registry
	names     *username.Allocator
	history   *history.Log
	logger    *log.Logger
}

// New creates a Dispatcher that delivers frames through transport.
func New(transport Transport, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		registry:  session.NewRegistry(),
		names:     username.NewAllocator(),
		history:   history.NewLog(),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Connect registers a new, unnamed session.
func (d *Dispatcher) Connect(id session.ID) {
	if err := d.registry.Register(id); err != nil {
		d.logger.Printf("Ignoring connect for %s: %v", id, err)
		return
	}
	d.logger.Printf("Session %s connected. Total sessions: %d", id, d.registry.Len())
}

// Disconnect removes a session. If it held a name, the name is released and
// the remaining sessions are told it left.
func (d *Dispatcher) Disconnect(id session.ID) {
	name, ok := d.registry.Unregister(id)
	if !ok {
		return
	}
	d.logger.Printf("Session %s disconnected. Total sessions: %d", id, d.registry.Len())
	if name == "" {
		return
	}

	if err := d.names.Release(name); err != nil {
		d.logger.Printf("Releasing name for %s: %v", id, err)
	}
	d.broadcast(protocol.Left(name))
	d.broadcast(protocol.Users(d.registry.NamedCount()))
}

// Handle processes one inbound frame from a session.
func (d *Dispatcher) Handle(id session.ID, text string) {
	name, ok := d.registry.Name(id)
	if !ok {
		d.logger.Printf("Dropping message from unknown session %s", id)
		return
	}

	msg := protocol.Parse(text)
	if msg.Kind.Mutates() && name == "" {
		d.unicast(id, protocol.Denied(reasonUnregistered))
		return
	}

	switch msg.Kind {
	case protocol.KindGetBuffer:
		d.handleGetBuffer(id)
	case protocol.KindUsername:
		d.handleUsername(id, name, msg.Payload)
	case protocol.KindPaint:
		d.handlePaint(msg.Payload)
	case protocol.KindReset:
		d.handleReset(name)
	case protocol.KindChat:
		d.handleChat(name, msg.Payload)
	default:
		d.unicast(id, protocol.Unrecognized(msg.Header))
	}
}

func (d *Dispatcher) handleGetBuffer(id session.ID) {
	ops, err := json.Marshal(d.history)
	if err != nil {
		d.logger.Printf("Encoding paint buffer for %s: %v", id, err)
		d.unicast(id, protocol.Error("paint buffer unavailable"))
		return
	}
	d.unicast(id, protocol.PaintBuffer(ops))
}

func (d *Dispatcher) handleUsername(id session.ID, current, requested string) {
	if current != "" {
		d.unicast(id, protocol.Denied("already registered as "+current))
		return
	}

	assigned, err := d.names.Claim(requested)
	if err != nil {
		var denied *username.DeniedError
		if errors.As(err, &denied) {
			d.logger.Printf("Denied username %q for %s: %v", requested, id, err)
			d.unicast(id, protocol.Denied(denied.Reasons...))
			return
		}
		d.logger.Printf("Claiming username for %s: %v", id, err)
		d.unicast(id, protocol.Error("username unavailable"))
		return
	}

	if err := d.registry.SetName(id, assigned); err != nil {
		d.logger.Printf("Recording username for %s: %v", id, err)
		if releaseErr := d.names.Release(assigned); releaseErr != nil {
			d.logger.Printf("Releasing name for %s: %v", id, releaseErr)
		}
		d.unicast(id, protocol.Error("username unavailable"))
		return
	}

	d.logger.Printf("Session %s accepted as %q", id, assigned)
	d.unicast(id, protocol.Accepted(assigned))
	d.broadcastExcept(id, protocol.Joined(assigned))
	d.broadcast(protocol.Users(d.registry.NamedCount()))
}

func (d *Dispatcher) handlePaint(op string) {
	d.history.Append(op)
	d.broadcast(protocol.Paint(op))
}

func (d *Dispatcher) handleReset(name string) {
	d.history.Reset()
	d.logger.Printf("Paint buffer reset by %q", name)
	d.broadcast(protocol.Reset(name))
}

func (d *Dispatcher) handleChat(name, text string) {
	d.broadcast(protocol.Chat(name, text))
}

// History returns the current paint history.
func (d *Dispatcher) History() []string {
	return d.history.Snapshot()
}

// Strokes returns the number of operations in the paint history.
func (d *Dispatcher) Strokes() int {
	return d.history.Len()
}

// Participants returns the number of named sessions.
func (d *Dispatcher) Participants() int {
	return d.registry.NamedCount()
}

// Connections returns the number of live sessions, named or not.
func (d *Dispatcher) Connections() int {
	return d.registry.Len()
}

func (d *Dispatcher) unicast(id session.ID, frame string) {
	if err := d.transport.Send(id, frame); err != nil {
		d.logger.Printf("Delivery to %s failed: %v", id, err)
	}
}

func (d *Dispatcher) broadcast(frame string) {
	for _, id := range d.registry.Snapshot() {
		d.unicast(id, frame)
	}
}

func (d *Dispatcher) broadcastExcept(sender session.ID, frame string) {
	for _, id := range d.registry.Snapshot() {
		if id == sender {
			continue
		}
		d.unicast(id, frame)
	}
}
