// Package otel provides structured observability for deckhand.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional RingBuffer provides live in-memory inspection for the TUI
// telemetry overlay. Components receive a *Logger as their observability
// hook; a nil Logger is safe and discards everything.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Conversation events
	KindConvoChanged EventKind = "convo.changed"

	// Effect routing events
	KindEffectReceived EventKind = "effect.received"
	KindEffectDropped  EventKind = "effect.dropped"

	// Deck selection and fetch events
	KindDeckSelected      EventKind = "deck.selected"
	KindSelectionReset    EventKind = "deck.selection_reset"
	KindDeckFetchStart    EventKind = "deck.fetch_start"
	KindDeckFetchComplete EventKind = "deck.fetch_complete"
	KindDeckFetchError    EventKind = "deck.fetch_error"
	KindDeckStaleDrop     EventKind = "deck.stale_drop"
	KindDeckListComplete  EventKind = "deck.list_complete"
	KindDeckListError     EventKind = "deck.list_error"

	// Card search events
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchTimeout  EventKind = "search.timeout"
	KindSearchError    EventKind = "search.error"

	// Chat stream events
	KindStreamConnect EventKind = "stream.connect"
	KindStreamEvent   EventKind = "stream.event"
	KindStreamError   EventKind = "stream.error"

	// Store events
	KindStoreError EventKind = "store.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time     `json:"t"`
	Level     Level         `json:"level,omitempty"`
	Kind      EventKind     `json:"kind"`
	Comp      string        `json:"comp,omitempty"`       // component: "panel", "router", "search", "stream"
	SessionID string        `json:"session_id,omitempty"` // random hex, same for entire app run
	ConvoID   string        `json:"convo_id,omitempty"`   // conversation identity at event time
	DeckID    int           `json:"deck_id,omitempty"`
	Query     string        `json:"query,omitempty"`
	Count     int           `json:"count,omitempty"`
	Dur       time.Duration `json:"-"`                // not serialized directly
	DurMs     float64       `json:"dur_ms,omitempty"` // computed from Dur at marshal time
	Err       string        `json:"err,omitempty"`
	Msg       string        `json:"msg,omitempty"` // free text
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
