// Package server coordinates client registration, inbound frame dispatch and
// connection cleanup for the paint server via the Hub type.
package server

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Tyrowin/gopaint/internal/dispatch"
	"github.com/Tyrowin/gopaint/internal/session"
)

var (
	// ErrUnknownSession is returned when sending to a session with no client.
	ErrUnknownSession = errors.New("unknown session")
	// ErrClientClosed is returned when sending to a client already being dropped.
	ErrClientClosed = errors.New("client closed")
	// ErrSendBufferFull is returned when a client cannot keep up with broadcasts.
	ErrSendBufferFull = errors.New("send buffer full")
	// ErrHubStopped is returned when the hub is no longer running.
	ErrHubStopped = errors.New("hub stopped")
)

// Stats is a point-in-time view of the shared paint state.
type Stats struct {
	Connections  int `json:"connections"`
	Participants int `json:"participants"`
	Strokes      int `json:"strokes"`
}

// Hub owns every WebSocket client and the dispatcher holding shared state.
// All of that state is touched only from the Run goroutine, so each inbound
// frame is handled to completion before the next one starts.
type Hub struct {
	clients    map[session.ID]*Client
	dispatcher *dispatch.Dispatcher
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage
	queries    chan func(*dispatch.Dispatcher)
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub ready to be started with Run. Options are passed to the
// dispatcher it owns.
func NewHub(opts ...dispatch.Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[session.ID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage),
		queries:    make(chan func(*dispatch.Dispatcher)),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.dispatcher = dispatch.New(h, opts...)
	return h
}

// Send queues a frame for one client without blocking. A client whose buffer
// is full is dropped; its write pump closes the socket and the read pump then
// unregisters it. Send must only be called from the Run goroutine.
func (h *Hub) Send(id session.ID, frame string) error {
	client, ok := h.clients[id]
	if !ok {
		return ErrUnknownSession
	}
	if client.closed {
		return ErrClientClosed
	}

	select {
	case client.send <- []byte(frame):
		return nil
	default:
		log.Printf("Client %s removed due to full send buffer", client.addr)
		client.closed = true
		close(client.send)
		return ErrSendBufferFull
	}
}

// Run starts the hub's event loop. It should be called in its own goroutine
// and returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case msg := <-h.inbound:
			h.handleInbound(msg)

		case query := <-h.queries:
			query(h.dispatcher)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		log.Printf("Received nil client registration; skipping")
		return
	}

	h.clients[client.id] = client
	h.dispatcher.Connect(client.id)
	log.Printf("Client registered from %s. Total clients: %d", client.addr, len(h.clients))

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// handleInbound dispatches a frame unless its client is gone or has already
// been dropped.
func (h *Hub) handleInbound(msg inboundMessage) {
	if _, ok := h.clients[msg.client.id]; !ok || msg.client.closed {
		return
	}
	h.dispatcher.Handle(msg.client.id, msg.text)
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client.id]; !ok {
		return
	}

	delete(h.clients, client.id)
	if !client.closed {
		client.closed = true
		close(client.send)
	}
	log.Printf("Client unregistered from %s. Total clients: %d", client.addr, len(h.clients))
	h.dispatcher.Disconnect(client.id)
}

// submit hands a client event to the Run goroutine, giving up once the hub
// has stopped.
func submit[T any](h *Hub, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Stats reads the shared paint state through the event loop.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	query := func(d *dispatch.Dispatcher) {
		reply <- Stats{
			Connections:  d.Connections(),
			Participants: d.Participants(),
			Strokes:      d.Strokes(),
		}
	}

	select {
	case h.queries <- query:
	case <-h.ctx.Done():
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}

	select {
	case stats := <-reply:
		return stats, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// shutdownClients closes every active client connection.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	for _, client := range h.clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil {
			if !isExpectedCloseError(err) {
				log.Printf("Error closing client connection from %s: %v", client.addr, err)
			}
		}
	}

	log.Printf("Closed %d client connections", len(h.clients))
}

// Shutdown stops the hub and waits for all client goroutines to finish, or
// until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
