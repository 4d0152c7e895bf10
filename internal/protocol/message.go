// Package protocol defines the text frame format shared by the paint server
// and its clients: a header token, a colon, and a free-form payload.
package protocol

import (
	"strconv"
	"strings"
)

// Delimiter separates the header from the payload in every frame.
const Delimiter = ":"

// Kind is the closed set of inbound message types.
type Kind int

const (
	// KindUnrecognized is any header the server does not understand.
	KindUnrecognized Kind = iota
	KindGetBuffer
	KindUsername
	KindPaint
	KindReset
	KindChat
)

// Inbound headers.
const (
	HeaderGetBuffer      = "GETBUFFER"
	HeaderGetPaintBuffer = "GETPAINTBUFFER"
	HeaderUsername       = "USERNAME"
	HeaderPaint          = "PAINT"
	HeaderReset          = "RESET"
	HeaderChat           = "CHAT"
)

// Outbound headers.
const (
	HeaderPaintBuffer = "PAINTBUFFER"
	HeaderAccepted    = "ACCEPTED"
	HeaderDenied      = "DENIED"
	HeaderInfo        = "INFO"
	HeaderUsers       = "USERS"
	HeaderError       = "ERROR"
)

var kinds = map[string]Kind{
	HeaderGetBuffer:      KindGetBuffer,
	HeaderGetPaintBuffer: KindGetBuffer,
	HeaderUsername:       KindUsername,
	HeaderPaint:          KindPaint,
	HeaderReset:          KindReset,
	HeaderChat:           KindChat,
}

func (k Kind) String() string {
	switch k {
	case KindGetBuffer:
		return HeaderGetBuffer
	case KindUsername:
		return HeaderUsername
	case KindPaint:
		return HeaderPaint
	case KindReset:
		return HeaderReset
	case KindChat:
		return HeaderChat
	default:
		return "UNRECOGNIZED"
	}
}

// Mutates reports whether the kind changes shared state and therefore
// requires a named sender.
func (k Kind) Mutates() bool {
	return k == KindPaint || k == KindReset || k == KindChat
}

// Message is one parsed inbound frame.
type Message struct {
	Kind    Kind
	Header  string
	Payload string
}

// Parse splits a frame at the first delimiter. A frame with no delimiter is
// all header and an empty payload.
func Parse(text string) Message {
	header, payload, _ := strings.Cut(text, Delimiter)
	return Message{
		Kind:    kinds[header],
		Header:  header,
		Payload: payload,
	}
}

func frame(header, payload string) string {
	return header + Delimiter + payload
}

// PaintBuffer builds the history replay frame from a JSON array.
func PaintBuffer(ops []byte) string {
	return frame(HeaderPaintBuffer, string(ops))
}

// Accepted confirms the display name assigned to a client.
func Accepted(name string) string {
	return frame(HeaderAccepted, name)
}

// Denied lists every reason a request was refused.
func Denied(reasons ...string) string {
	return frame(HeaderDenied, strings.Join(reasons, "; "))
}

// Info carries a human-readable notice.
func Info(text string) string {
	return frame(HeaderInfo, text)
}

// Joined announces a newly named participant.
func Joined(name string) string {
	return Info(name + " has joined")
}

// Left announces a departed participant.
func Left(name string) string {
	return Info(name + " has left")
}

// Users carries the current participant count.
func Users(count int) string {
	return frame(HeaderUsers, strconv.Itoa(count))
}

// Paint relays one committed paint operation.
func Paint(op string) string {
	return frame(HeaderPaint, op)
}

// Reset tells clients to clear their canvas, naming who asked for it.
func Reset(name string) string {
	return frame(HeaderReset, name)
}

// Chat relays a chat line attributed to its sender.
func Chat(name, text string) string {
	return frame(HeaderChat, name+": "+text)
}

// Error reports a protocol error to one client.
func Error(text string) string {
	return frame(HeaderError, text)
}

// Unrecognized reports a header the server does not understand.
func Unrecognized(header string) string {
	return Error("unrecognized header " + strconv.Quote(header))
}
