package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestParse covers header/payload splitting for every inbound kind.
func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Message
	}{
		{
			name:     "paint with payload",
			input:    "PAINT:line 1",
			expected: Message{Kind: KindPaint, Header: "PAINT", Payload: "line 1"},
		},
		{
			name:     "payload keeps later delimiters",
			input:    "CHAT:see: http://example.com",
			expected: Message{Kind: KindChat, Header: "CHAT", Payload: "see: http://example.com"},
		},
		{
			name:     "no delimiter",
			input:    "RESET",
			expected: Message{Kind: KindReset, Header: "RESET"},
		},
		{
			name:     "empty payload",
			input:    "GETBUFFER:",
			expected: Message{Kind: KindGetBuffer, Header: "GETBUFFER"},
		},
		{
			name:     "legacy buffer request",
			input:    "GETPAINTBUFFER",
			expected: Message{Kind: KindGetBuffer, Header: "GETPAINTBUFFER"},
		},
		{
			name:     "username",
			input:    "USERNAME:Bob",
			expected: Message{Kind: KindUsername, Header: "USERNAME", Payload: "Bob"},
		},
		{
			name:     "headers are case sensitive",
			input:    "paint:x",
			expected: Message{Kind: KindUnrecognized, Header: "paint", Payload: "x"},
		},
		{
			name:     "empty frame",
			input:    "",
			expected: Message{Kind: KindUnrecognized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.input))
		})
	}
}

// TestKindMutates verifies only content-changing kinds require a name.
func TestKindMutates(t *testing.T) {
	assert.True(t, KindPaint.Mutates())
	assert.True(t, KindReset.Mutates())
	assert.True(t, KindChat.Mutates())
	assert.False(t, KindGetBuffer.Mutates())
	assert.False(t, KindUsername.Mutates())
	assert.False(t, KindUnrecognized.Mutates())
}

// TestOutboundFrames checks the exact wire form of each outbound message.
func TestOutboundFrames(t *testing.T) {
	assert.Equal(t, `PAINTBUFFER:["a","b"]`, PaintBuffer([]byte(`["a","b"]`)))
	assert.Equal(t, "ACCEPTED:bob(1)", Accepted("bob(1)"))
	assert.Equal(t, `DENIED:invalid character ":"; reserved name`, Denied(`invalid character ":"`, "reserved name"))
	assert.Equal(t, "INFO:bob(1) has joined", Joined("bob(1)"))
	assert.Equal(t, "INFO:bob has left", Left("bob"))
	assert.Equal(t, "USERS:3", Users(3))
	assert.Equal(t, "PAINT:line 1", Paint("line 1"))
	assert.Equal(t, "RESET:bob(1)", Reset("bob(1)"))
	assert.Equal(t, "CHAT:bob: hi there", Chat("bob", "hi there"))
	assert.Equal(t, `ERROR:unrecognized header "DRAW"`, Unrecognized("DRAW"))
}
