// Package convo tracks conversation identity for deckhand.
//
// The chat collaborator exposes an opaque conversation handle; all this
// package cares about is whether the identity behind that handle has
// actually changed since the last observation. Downstream state (the active
// deck selection) resets on identity transitions, so a Tracker must stay
// quiet on no-op re-observations of the same conversation.
package convo

// ID is an opaque conversation identifier. The zero value means no
// conversation has started. Equality is plain value equality.
type ID string

// None is the absent conversation identity.
const None ID = ""

// Tracker remembers the last observed conversation identity and reports
// transitions. Not goroutine-safe; observations arrive on a single event
// loop.
type Tracker struct {
	last ID
}

// Observe compares id against the previously observed identity. On a
// transition (including to or from None) it records the new identity and
// returns true. Re-observing the current identity returns false.
func (t *Tracker) Observe(id ID) bool {
	if id == t.last {
		return false
	}
	t.last = id
	return true
}

// Current returns the most recently observed identity.
func (t *Tracker) Current() ID {
	return t.last
}
