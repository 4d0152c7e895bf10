// Package history keeps the ordered log of committed paint operations that
// late joiners replay to rebuild the shared canvas.
package history

import "encoding/json"

// Log is an append-only sequence of opaque paint operations that can be
// emptied in one step. It is not safe for concurrent use.
type Log struct {
	ops []string
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{ops: []string{}}
}

// Append adds one operation to the end of the log.
func (l *Log) Append(op string) {
	l.ops = append(l.ops, op)
}

// Reset empties the log.
func (l *Log) Reset() {
	l.ops = []string{}
}

// Len returns the number of operations in the log.
func (l *Log) Len() int {
	return len(l.ops)
}

// Snapshot returns a copy of every operation in order. The result is never
// nil, so it encodes as an empty JSON array rather than null.
func (l *Log) Snapshot() []string {
	out := make([]string, len(l.ops))
	copy(out, l.ops)
	return out
}

// MarshalJSON encodes the log as a JSON array of operations.
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Snapshot())
}
