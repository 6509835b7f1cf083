package ui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/calebwray/deckhand/internal/convo"
	"github.com/calebwray/deckhand/internal/deck"
	"github.com/calebwray/deckhand/internal/panel"
	"github.com/calebwray/deckhand/internal/search"
)

// searchView holds the state of the search results view.
type searchView struct {
	query   string
	pending bool
	done    bool
	snap    search.Snapshot
}

func (v *searchView) begin(query string) {
	v.query = query
	v.pending = true
}

func (v *searchView) apply(snap search.Snapshot) {
	v.snap = snap
	v.query = snap.Query
	v.pending = false
	v.done = true
}

// renderDeckPanel renders the main deck panel view.
func renderDeckPanel(orch *panel.Orchestrator, spin string, width, height int) string {
	var lines []string

	title := "Deck Panel"
	if name := orch.DeckName(); name != "" {
		title = name
	} else if id, ok := orch.Selection(); ok {
		title = fmt.Sprintf("Deck %d", id)
	}
	lines = append(lines, PanelTitle.Render(title))

	fetch := orch.Fetch()
	switch fetch.Phase {
	case panel.PhaseIdle:
		lines = append(lines, HelpStyle.Render("No deck selected. Pick one in chat, or press 'd' for your decks."))

	case panel.PhaseLoading:
		lines = append(lines, NormalItem.Render(fmt.Sprintf("%s Loading deck %d...", spin, fetch.DeckID)))

	case panel.PhaseFailed:
		msg := fetch.Err
		if msg == "" {
			msg = "deck fetch failed"
		}
		lines = append(lines, ErrorStyle.Render("Error: "+msg))
		lines = append(lines, HelpStyle.Render("The selection is kept; a new selection will retry."))

	case panel.PhaseLoaded:
		lines = append(lines, renderContents(fetch.Contents, width)...)
	}

	return clampJoin(lines, height)
}

// renderContents renders loaded deck contents as sectioned card rows.
func renderContents(c deck.Contents, width int) []string {
	var lines []string

	if desc := c.Metadata.Description; desc != "" {
		lines = append(lines, MetaItem.Render(truncateRunes(desc, width-4)))
	}
	if c.Metadata.Format != "" {
		lines = append(lines, MetaItem.Render("Format: "+c.Metadata.Format))
	}

	if c.Leader != nil {
		lines = append(lines, SectionHeader.Render("Leader"))
		lines = append(lines, renderEntry(*c.Leader, width))
	}
	if c.Base != nil {
		lines = append(lines, SectionHeader.Render("Base"))
		lines = append(lines, renderEntry(*c.Base, width))
	}

	lines = append(lines, SectionHeader.Render(fmt.Sprintf("Deck (%d)", c.MainCount())))
	for _, e := range c.Main {
		lines = append(lines, renderEntry(e, width))
	}

	if len(c.Sideboard) > 0 {
		lines = append(lines, SectionHeader.Render(fmt.Sprintf("Sideboard (%d)", c.SideboardCount())))
		for _, e := range c.Sideboard {
			lines = append(lines, renderEntry(e, width))
		}
	}

	return lines
}

// renderEntry renders one card row: count, then name, falling back to the
// card id when the service sent no name.
func renderEntry(e deck.Entry, width int) string {
	name := e.Name
	if name == "" {
		name = e.ID
	}
	count := e.Count
	if count < 1 {
		count = 1
	}
	row := fmt.Sprintf("%2dx %s", count, name)
	return NormalItem.Render(truncateRunes(row, width-4))
}

// renderDeckList renders the deck list view with cursor navigation.
func renderDeckList(decks []deck.Summary, cursor int, loading bool, spin string, width, height int) string {
	var lines []string
	lines = append(lines, PanelTitle.Render("Your Decks"))

	switch {
	case loading:
		lines = append(lines, NormalItem.Render(spin+" Loading decks..."))
	case len(decks) == 0:
		lines = append(lines, HelpStyle.Render("No decks found."))
	default:
		for i, d := range decks {
			mark := "  "
			if d.Favorite {
				mark = FavoriteMark.Render("★") + " "
			}
			row := fmt.Sprintf("%s%s", mark, truncateRunes(d.Name, width-8))
			if i == cursor {
				lines = append(lines, SelectedItem.Render(row))
			} else {
				lines = append(lines, NormalItem.Render(row))
			}
		}
	}

	return clampJoin(lines, height)
}

// renderSearch renders the search results view with 1-based result numbers.
func renderSearch(v searchView, spin string, width, height int) string {
	var lines []string
	lines = append(lines, PanelTitle.Render("Card Search"))

	switch {
	case v.pending:
		lines = append(lines, NormalItem.Render(fmt.Sprintf("%s Searching for %q...", spin, v.query)))

	case !v.done:
		lines = append(lines, HelpStyle.Render("Type / then a query to search for cards."))

	case !v.snap.OK():
		lines = append(lines, MetaItem.Render("Query: "+v.query))
		lines = append(lines, ErrorStyle.Render("Error: "+v.snap.Err))

	case len(v.snap.Results) == 0:
		lines = append(lines, MetaItem.Render("Query: "+v.query))
		lines = append(lines, HelpStyle.Render("No cards matched."))

	default:
		lines = append(lines, MetaItem.Render(fmt.Sprintf("Query: %s (%d results)", v.query, len(v.snap.Results))))
		for i, r := range v.snap.Results {
			row := fmt.Sprintf("%2d. %s", i+1, truncateRunes(r, width-8))
			lines = append(lines, NormalItem.Render(row))
		}
	}

	return clampJoin(lines, height)
}

// renderHistory renders recent searches from the store.
func renderHistory(entries []HistoryEntry, width, height int) string {
	var lines []string
	lines = append(lines, PanelTitle.Render("Search History"))

	if len(entries) == 0 {
		lines = append(lines, HelpStyle.Render("No searches recorded yet."))
	}
	for _, e := range entries {
		age := formatAge(time.Since(e.When))
		row := fmt.Sprintf("%6s  %-8s %s", age, fmt.Sprintf("(%d)", e.Results), truncateRunes(e.Query, width-24))
		lines = append(lines, NormalItem.Render(row))
	}

	return clampJoin(lines, height)
}

// renderCommandBar renders the "/" input bar.
func renderCommandBar(text string, width int) string {
	prompt := CommandBarPrompt.Render("/")
	content := prompt + text
	contentWidth := lipgloss.Width(content)
	padding := width - contentWidth - 2
	if padding < 0 {
		padding = 0
	}
	return CommandBar.Width(width).Render(content+strings.Repeat(" ", padding)) + "\n"
}

// renderStatusBar renders the bottom status bar with key hints.
func renderStatusBar(mode viewMode, streamUp bool, conversation convo.ID, phase panel.Phase, width int) string {
	var left string
	switch {
	case phase == panel.PhaseLoading:
		left = " Loading... "
	case streamUp:
		left = " ● chat "
	default:
		left = " ○ chat "
	}
	if conversation != convo.None {
		left += MetaItem.Render(shortID(string(conversation)))
	}

	keys := []string{
		StatusBarKey.Render("/") + StatusBarText.Render(":search"),
		StatusBarKey.Render("d") + StatusBarText.Render(":decks"),
		StatusBarKey.Render("h") + StatusBarText.Render(":history"),
		StatusBarKey.Render("e") + StatusBarText.Render(":events"),
		StatusBarKey.Render("q") + StatusBarText.Render(":quit"),
	}
	if mode == modeDeckList {
		keys = append([]string{
			StatusBarKey.Render("j/k") + StatusBarText.Render(":nav"),
			StatusBarKey.Render("Enter") + StatusBarText.Render(":open"),
		}, keys...)
	}
	keyHints := strings.Join(keys, " ")

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(keyHints)
	padding := width - leftWidth - rightWidth
	if padding < 0 {
		padding = 0
	}

	bar := left + strings.Repeat(" ", padding) + keyHints
	return StatusBar.Width(width).Render(bar)
}

// clampJoin joins lines truncated to the available height, each terminated
// with a newline so the status bar lands on the last row.
func clampJoin(lines []string, height int) string {
	if height < 1 {
		height = 1
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

// shortID abbreviates an opaque identifier for status display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncateRunes shortens s to max runes, appending an ellipsis.
func truncateRunes(s string, max int) string {
	if max < 4 {
		max = 4
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
