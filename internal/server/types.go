// Package server defines the hub's internal event types and small helpers
// shared by the client and hub logic.
package server

import "strings"

// inboundMessage is one text frame read from a client, waiting for the hub.
type inboundMessage struct {
	client *Client
	text   string
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
