// Package ui provides the Bubble Tea TUI for deckhand.
package ui

import (
	"time"

	"github.com/calebwray/deckhand/internal/convo"
	"github.com/calebwray/deckhand/internal/deck"
	"github.com/calebwray/deckhand/internal/effect"
	"github.com/calebwray/deckhand/internal/search"
)

// ChatEvent is one event from the chat collaborator's stream: the current
// conversation identity plus an optional effect emitted inside it. Sent by
// the chat stream goroutine via program.Send.
type ChatEvent struct {
	ConversationID convo.ID
	Effect         *effect.Effect
}

// StreamStatus reports connectivity of the chat event stream.
type StreamStatus struct {
	Connected bool
	Err       error
}

// DeckLoaded carries the result of a deck contents fetch. DeckID is the id
// the fetch was started for; the orchestrator compares it against the
// current selection before applying.
type DeckLoaded struct {
	DeckID   int
	Contents *deck.Contents
	Err      error
}

// DeckListLoaded carries the user's deck list.
type DeckListLoaded struct {
	Decks []deck.Summary
	Err   error
}

// SearchDone carries a finished card search. Failures are folded into the
// snapshot, not surfaced as a separate error.
type SearchDone struct {
	Snapshot search.Snapshot
}

// HistoryLoaded carries recent search history from the store.
type HistoryLoaded struct {
	Entries []HistoryEntry
	Err     error
}

// HistoryEntry is one past search shown by the history view.
type HistoryEntry struct {
	Query   string
	Results int
	When    time.Time
}
