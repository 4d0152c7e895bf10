package server

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/gopaint/internal/dispatch"
)

func quietHub() *Hub {
	return NewHub(dispatch.WithLogger(log.New(io.Discard, "", 0)))
}

// addClient puts a connectionless client straight into the hub's table, the
// way the Run loop does on registration, without starting any pumps.
func addClient(h *Hub) *Client {
	c := NewClient(nil, h, "127.0.0.1:12345")
	h.clients[c.id] = c
	h.dispatcher.Connect(c.id)
	return c
}

func drain(c *Client) []string {
	var frames []string
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return frames
			}
			frames = append(frames, string(frame))
		default:
			return frames
		}
	}
}

// TestNewHub verifies NewHub wires a dispatcher and empty client table.
func TestNewHub(t *testing.T) {
	h := quietHub()
	require.NotNil(t, h)
	assert.NotNil(t, h.dispatcher)
	assert.Empty(t, h.clients)
}

// TestNewClient verifies clients get distinct sessions and a buffered queue.
func TestNewClient(t *testing.T) {
	h := quietHub()
	a := NewClient(nil, h, "127.0.0.1:1")
	b := NewClient(nil, h, "127.0.0.1:2")

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, CurrentConfig().SendBufferSize, cap(a.send))

	select {
	case <-a.GetSendChan():
		t.Error("Expected empty send channel")
	default:
	}
}

// TestHubSend covers delivery, unknown sessions and slow clients.
func TestHubSend(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	cfg := NewConfig()
	cfg.SendBufferSize = 2
	SetConfig(cfg)

	h := quietHub()
	c := addClient(h)

	require.NoError(t, h.Send(c.id, "PAINT:1"))
	require.NoError(t, h.Send(c.id, "PAINT:2"))
	assert.ErrorIs(t, h.Send(c.id, "PAINT:3"), ErrSendBufferFull)
	assert.True(t, c.closed)
	assert.ErrorIs(t, h.Send(c.id, "PAINT:4"), ErrClientClosed)
	assert.Equal(t, []string{"PAINT:1", "PAINT:2"}, drain(c))

	other := NewClient(nil, h, "127.0.0.1:2")
	assert.ErrorIs(t, h.Send(other.id, "PAINT:1"), ErrUnknownSession)
}

// TestHubDispatchThroughSend verifies the dispatcher's frames land on the
// right client queues and a slow client does not block the others.
func TestHubDispatchThroughSend(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	cfg := NewConfig()
	cfg.SendBufferSize = 4
	SetConfig(cfg)

	h := quietHub()
	a := addClient(h)
	b := addClient(h)

	h.dispatcher.Handle(a.id, "USERNAME:bob")
	assert.Equal(t, []string{"ACCEPTED:bob", "USERS:1"}, drain(a))
	assert.Equal(t, []string{"INFO:bob has joined", "USERS:1"}, drain(b))

	for i := 0; i < 6; i++ {
		h.dispatcher.Handle(a.id, "PAINT:x")
		drain(a)
	}
	assert.True(t, b.closed)
	assert.False(t, a.closed)
	assert.Len(t, h.dispatcher.History(), 6)
}

// TestHubUnregister verifies unregistering releases the session and tells the
// others it left.
func TestHubUnregister(t *testing.T) {
	h := quietHub()
	a := addClient(h)
	b := addClient(h)
	h.dispatcher.Handle(a.id, "USERNAME:bob")
	h.dispatcher.Handle(b.id, "USERNAME:bob")
	drain(a)
	drain(b)

	h.handleUnregister(a)
	assert.True(t, a.closed)
	assert.NotContains(t, h.clients, a.id)
	assert.Equal(t, []string{"INFO:bob has left", "USERS:1"}, drain(b))

	h.handleUnregister(a)
	assert.Empty(t, drain(b))
}

// TestHubIgnoresDroppedClient verifies frames still queued from a client the
// hub already dropped are not dispatched.
func TestHubIgnoresDroppedClient(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	cfg := NewConfig()
	cfg.SendBufferSize = 1
	SetConfig(cfg)

	h := quietHub()
	a := addClient(h)
	b := addClient(h)

	require.NoError(t, h.Send(a.id, "PAINT:1"))
	require.ErrorIs(t, h.Send(a.id, "PAINT:2"), ErrSendBufferFull)
	require.True(t, a.closed)

	h.handleInbound(inboundMessage{client: a, text: "USERNAME:bob"})
	h.handleInbound(inboundMessage{client: a, text: "PAINT:late"})

	assert.Zero(t, h.dispatcher.Participants())
	assert.Zero(t, h.dispatcher.Strokes())
	assert.Empty(t, drain(b))

	h.handleInbound(inboundMessage{client: b, text: "GETBUFFER"})
	assert.Equal(t, []string{"PAINTBUFFER:[]"}, drain(b))
}

// TestHubStats verifies stats are served through the running event loop.
func TestHubStats(t *testing.T) {
	h := quietHub()
	go h.Run()
	t.Cleanup(func() { _ = h.Shutdown(time.Second) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats, err := h.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

// TestHubShutdown verifies shutdown completes and later stats calls fail fast.
func TestHubShutdown(t *testing.T) {
	h := quietHub()
	go h.Run()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, h.Shutdown(time.Second))

	_, err := h.Stats(context.Background())
	assert.ErrorIs(t, err, ErrHubStopped)

	assert.False(t, submit(h, h.register, NewClient(nil, h, "127.0.0.1:1")))
}
