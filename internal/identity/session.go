// Package identity supplies the current owner to the synchronization core.
// Authentication itself is an external collaborator; the core only ever asks
// "who owns this session, if anyone".
package identity

import "github.com/google/uuid"

// Session resolves the currently signed-in owner. The second return value is
// false when no owner is present, in which case every mutating or fetching
// store operation is a no-op.
type Session interface {
	OwnerID() (uuid.UUID, bool)
}

// StaticSession is a session fixed at construction, used by the CLI and in
// tests where the owner comes from configuration rather than a login flow.
type StaticSession struct {
	owner uuid.UUID
	ok    bool
}

// NewStaticSession creates a session bound to the given owner.
func NewStaticSession(owner uuid.UUID) StaticSession {
	return StaticSession{owner: owner, ok: owner != uuid.Nil}
}

// Anonymous returns a session with no owner.
func Anonymous() StaticSession {
	return StaticSession{}
}

func (s StaticSession) OwnerID() (uuid.UUID, bool) {
	return s.owner, s.ok
}
