// Package effect routes named chat events to typed handlers.
//
// The chat collaborator emits loosely-typed effects as the conversation
// progresses. Payloads are decoded exactly once, at the Router boundary;
// everything downstream of Dispatch works with typed values. Unrecognized
// names and malformed payloads are dropped, leaving prior state untouched.
package effect

import (
	"encoding/json"
	"fmt"
)

// NameDeckSelected is the recognized effect name for deck selection.
const NameDeckSelected = "deck selected"

// Effect is a named event with a loosely-typed payload, as delivered by the
// chat collaborator.
type Effect struct {
	Name string         `json:"name"`
	Data map[string]any `json:"data"`
}

// DeckSelected is the decoded payload of a "deck selected" effect.
type DeckSelected struct {
	DeckID   int
	DeckName string // optional, empty if the payload omitted it
}

// DeckSelected decodes the effect as a deck selection. Errors if the
// effect has a different name or the payload is malformed.
func (e Effect) DeckSelected() (DeckSelected, error) {
	if e.Name != NameDeckSelected {
		return DeckSelected{}, fmt.Errorf("effect %q is not a deck selection", e.Name)
	}
	return decodeDeckSelected(e.Data)
}

// decodeDeckSelected extracts the deck identifier (and optional name) from
// an effect payload. The deck_id field must be present and numeric; numbers
// arrive as float64 from JSON decoding but integer values are accepted from
// synthetic in-process effects too.
func decodeDeckSelected(data map[string]any) (DeckSelected, error) {
	raw, ok := data["deck_id"]
	if !ok {
		return DeckSelected{}, fmt.Errorf("decode deck selected: missing deck_id")
	}

	var id int
	switch v := raw.(type) {
	case float64:
		id = int(v)
	case int:
		id = v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return DeckSelected{}, fmt.Errorf("decode deck selected: deck_id %q not an integer", v)
		}
		id = int(n)
	default:
		return DeckSelected{}, fmt.Errorf("decode deck selected: deck_id has type %T, want number", raw)
	}

	name, _ := data["deck_name"].(string)
	return DeckSelected{DeckID: id, DeckName: name}, nil
}
