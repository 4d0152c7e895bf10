// Package session tracks live connections and the display name each one holds.
package session

import (
	"cmp"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

var (
	// ErrAlreadyRegistered is returned when a session is registered twice.
	ErrAlreadyRegistered = errors.New("session already registered")
	// ErrNotRegistered is returned for operations on an unknown session.
	ErrNotRegistered = errors.New("session not registered")
	// ErrAlreadyNamed is returned when a named session is given a second name.
	ErrAlreadyNamed = errors.New("session already named")
)

// ID identifies one client connection for its whole lifetime.
type ID uuid.UUID

// NewID returns a fresh random session identifier.
func NewID() ID {
	return ID(uuid.New())
}

// String returns the canonical UUID form of the identifier.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

type entry struct {
	name string
	seq  uint64
}

// Registry maps live sessions to their display names. An empty name means the
// session has not completed the username handshake yet.
//
// Registry is not safe for concurrent use; it is owned by the dispatch loop.
type Registry struct {
	entries map[ID]*entry
	nextSeq uint64
	named   int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[ID]*entry),
	}
}

// Register adds a session with no display name.
func (r *Registry) Register(id ID) error {
	if _, exists := r.entries[id]; exists {
		return ErrAlreadyRegistered
	}
	r.nextSeq++
	r.entries[id] = &entry{seq: r.nextSeq}
	return nil
}

// Unregister removes the session and returns the display name it held.
// ok is false when the session was not registered.
func (r *Registry) Unregister(id ID) (name string, ok bool) {
	e, exists := r.entries[id]
	if !exists {
		return "", false
	}
	delete(r.entries, id)
	if e.name != "" {
		r.named--
	}
	return e.name, true
}

// SetName records the accepted display name for a session.
func (r *Registry) SetName(id ID, name string) error {
	e, exists := r.entries[id]
	if !exists {
		return ErrNotRegistered
	}
	if e.name != "" {
		return ErrAlreadyNamed
	}
	e.name = name
	r.named++
	return nil
}

// Name returns the display name of a session, or "" if it is unnamed.
func (r *Registry) Name(id ID) (string, bool) {
	e, exists := r.entries[id]
	if !exists {
		return "", false
	}
	return e.name, true
}

// IsAccepted reports whether the session has been assigned a display name.
func (r *Registry) IsAccepted(id ID) bool {
	e, exists := r.entries[id]
	return exists && e.name != ""
}

// Len returns the number of live sessions, named or not.
func (r *Registry) Len() int {
	return len(r.entries)
}

// NamedCount returns the number of sessions holding a display name.
func (r *Registry) NamedCount() int {
	return r.named
}

// Snapshot returns the current members in registration order. Each call
// builds a new slice.
func (r *Registry) Snapshot() []ID {
	type member struct {
		id  ID
		seq uint64
	}
	members := make([]member, 0, len(r.entries))
	for id, e := range r.entries {
		members = append(members, member{id: id, seq: e.seq})
	}
	slices.SortFunc(members, func(a, b member) int {
		return cmp.Compare(a.seq, b.seq)
	})

	ids := make([]ID, len(members))
	for i, m := range members {
		ids[i] = m.id
	}
	return ids
}
