// Package panel holds the active-deck selection state machine.
//
// The Orchestrator composes the conversation tracker, effect router, and
// deck fetcher: a conversation-identity change clears the selection, a
// routed "deck selected" effect sets it and starts a fetch, and fetch
// completions are applied only while their deck id still matches the
// current selection. Selection changes can outrun network round-trips, so
// discarding superseded results is the only cancellation mechanism; there
// is no explicit fetch-abort API.
//
// All mutations happen on a single event loop; the Orchestrator takes no
// locks. The injected start trigger runs the actual fetch elsewhere and
// reports back through FetchResolved.
package panel

import (
	"github.com/calebwray/deckhand/internal/convo"
	"github.com/calebwray/deckhand/internal/deck"
	"github.com/calebwray/deckhand/internal/otel"
)

// Phase is the lifecycle stage of the current deck fetch.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

// String returns the lowercase phase name for logs and telemetry.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// FetchState describes the fetch cycle for the selected deck. DeckID is
// meaningful for every phase except Idle, and always equals the selection
// that was current when the state was applied.
type FetchState struct {
	Phase    Phase
	DeckID   int
	Contents deck.Contents // valid when Phase == PhaseLoaded
	Err      string        // set when Phase == PhaseFailed
}

// Orchestrator owns the deck selection and its fetch state. Create with
// NewOrchestrator; the zero value has no fetch trigger and will not load
// anything.
type Orchestrator struct {
	selection    int
	hasSelection bool
	deckName     string // from the selection effect, shown while loading
	fetch        FetchState

	start  func(deckID int) // injected fetch trigger, may be nil
	events *otel.Logger
}

// NewOrchestrator creates an Orchestrator. start is invoked synchronously
// from DeckSelected after the Loading state is applied; it should hand the
// fetch to a background worker and arrange for FetchResolved to be called
// on the event loop with the outcome. The telemetry logger may be nil.
func NewOrchestrator(start func(deckID int), events *otel.Logger) *Orchestrator {
	return &Orchestrator{start: start, events: events}
}

// ConversationChanged resets the selection and fetch state. Call only on
// actual identity transitions (the convo.Tracker decides); calling it on
// every observation would wipe selection on no-op re-renders.
func (o *Orchestrator) ConversationChanged(id convo.ID) {
	o.selection = 0
	o.hasSelection = false
	o.deckName = ""
	o.fetch = FetchState{}

	o.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindSelectionReset,
		Comp:    "panel",
		ConvoID: string(id),
	})
}

// DeckSelected applies a routed deck-selection effect. The Loading state is
// visible before the trigger runs, so observers never see a selected deck
// without a fetch in flight.
func (o *Orchestrator) DeckSelected(deckID int, deckName string) {
	o.selection = deckID
	o.hasSelection = true
	o.deckName = deckName
	o.fetch = FetchState{Phase: PhaseLoading, DeckID: deckID}

	o.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindDeckSelected,
		Comp:   "panel",
		DeckID: deckID,
		Msg:    deckName,
	})

	if o.start != nil {
		o.start(deckID)
	}
}

// FetchResolved applies a fetch outcome. Results for a deck that is no
// longer the current selection are discarded: without this an old deck's
// contents could flash after a newer deck was already chosen.
func (o *Orchestrator) FetchResolved(deckID int, contents deck.Contents, err error) {
	if !o.hasSelection || deckID != o.selection {
		o.events.Emit(otel.Event{
			Level:  otel.LevelDebug,
			Kind:   otel.KindDeckStaleDrop,
			Comp:   "panel",
			DeckID: deckID,
		})
		return
	}

	if err != nil {
		o.fetch = FetchState{Phase: PhaseFailed, DeckID: deckID, Err: err.Error()}
		o.events.Emit(otel.Event{
			Level:  otel.LevelError,
			Kind:   otel.KindDeckFetchError,
			Comp:   "panel",
			DeckID: deckID,
			Err:    err.Error(),
		})
		return
	}

	o.fetch = FetchState{Phase: PhaseLoaded, DeckID: deckID, Contents: contents}
	o.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindDeckFetchComplete,
		Comp:   "panel",
		DeckID: deckID,
		Count:  contents.MainCount(),
	})
}

// Selection returns the currently selected deck id, if any.
func (o *Orchestrator) Selection() (int, bool) {
	return o.selection, o.hasSelection
}

// DeckName returns the display name carried by the selection effect, if the
// payload included one. Empty until a selection arrives.
func (o *Orchestrator) DeckName() string {
	if o.fetch.Phase == PhaseLoaded && o.fetch.Contents.Title() != "" {
		return o.fetch.Contents.Title()
	}
	return o.deckName
}

// Fetch returns the current fetch state. Presentation reads this; it never
// mutates it.
func (o *Orchestrator) Fetch() FetchState {
	return o.fetch
}
