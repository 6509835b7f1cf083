// Package deck provides the deck data model and HTTP retrieval for deckhand.
package deck

// Metadata holds the descriptive fields of a deck.
type Metadata struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Format      string `json:"format,omitempty"`
}

// Entry is one card line in a deck: a card identifier, how many copies, and
// an optional display name. Leader and base cards reuse the same shape with
// an implicit count of one.
type Entry struct {
	ID    string `json:"id"`
	Count int    `json:"count,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Contents is the full structured contents of a deck, as returned by the
// deck endpoint. Main and sideboard preserve upstream order.
type Contents struct {
	DeckID    int      `json:"deck_id"`
	Metadata  Metadata `json:"metadata"`
	Leader    *Entry   `json:"leader,omitempty"`
	Base      *Entry   `json:"base,omitempty"`
	Main      []Entry  `json:"deck"`
	Sideboard []Entry  `json:"sideboard"`
}

// Title returns the deck's display name, falling back to the numeric id.
func (c Contents) Title() string {
	if c.Metadata.Name != "" {
		return c.Metadata.Name
	}
	return ""
}

// MainCount returns the total number of cards in the main deck (sum of
// per-entry counts, not unique entries).
func (c Contents) MainCount() int {
	return sumCounts(c.Main)
}

// SideboardCount returns the total number of cards in the sideboard.
func (c Contents) SideboardCount() int {
	return sumCounts(c.Sideboard)
}

func sumCounts(entries []Entry) int {
	total := 0
	for _, e := range entries {
		total += e.Count
	}
	return total
}

// Summary is one row of the user's saved deck list.
type Summary struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Favorite bool   `json:"is_favorite,omitempty"`
}
