// Package server implements the WebSocket transport and HTTP surface of the
// paint server.
//
// A single Hub goroutine owns the dispatcher and every client's send queue,
// so paint history, usernames and membership change one frame at a time.
// Each Client runs a read pump that feeds the hub and a write pump that
// drains its queue. Configuration, origin checks, rate limiting and routing
// live in their own files.
package server
