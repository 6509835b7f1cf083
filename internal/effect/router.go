package effect

import (
	"github.com/calebwray/deckhand/internal/otel"
)

// Router dispatches effects to typed handlers by name. The recognized set is
// closed; effects with unknown names are dropped so future effect types can
// ship without breaking old clients. Not goroutine-safe; Dispatch runs on
// the event loop, in arrival order.
type Router struct {
	onDeckSelected func(DeckSelected)
	events         *otel.Logger
}

// NewRouter creates a Router. The telemetry logger may be nil.
func NewRouter(events *otel.Logger) *Router {
	return &Router{events: events}
}

// HandleDeckSelected registers the handler for "deck selected" effects.
// A nil handler unregisters.
func (r *Router) HandleDeckSelected(fn func(DeckSelected)) {
	r.onDeckSelected = fn
}

// Dispatch decodes and forwards one effect. Telemetry records every effect
// seen but never affects routing. Malformed payloads for recognized names
// are dropped rather than forwarded with a junk identifier.
func (r *Router) Dispatch(e Effect) {
	r.events.Emit(otel.Event{
		Level: otel.LevelDebug,
		Kind:  otel.KindEffectReceived,
		Comp:  "router",
		Msg:   e.Name,
	})

	switch e.Name {
	case NameDeckSelected:
		sel, err := decodeDeckSelected(e.Data)
		if err != nil {
			r.events.Emit(otel.Event{
				Level: otel.LevelWarn,
				Kind:  otel.KindEffectDropped,
				Comp:  "router",
				Msg:   e.Name,
				Err:   err.Error(),
			})
			return
		}
		if r.onDeckSelected != nil {
			r.onDeckSelected(sel)
		}

	default:
		r.events.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindEffectDropped,
			Comp:  "router",
			Msg:   e.Name,
		})
	}
}
