package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/calebwray/deckhand/internal/convo"
	"github.com/calebwray/deckhand/internal/deck"
	"github.com/calebwray/deckhand/internal/effect"
	"github.com/calebwray/deckhand/internal/panel"
	"github.com/calebwray/deckhand/internal/search"
)

// mockCmds tracks which command functions were called.
type mockCmds struct {
	deckListCalled bool
	historyCalled  bool
	searchQueries  []string
}

func (m *mockCmds) loadDeckList() tea.Cmd {
	m.deckListCalled = true
	return func() tea.Msg {
		return DeckListLoaded{Decks: []deck.Summary{
			{ID: 1, Name: "Red Aggro", Favorite: true},
			{ID: 2, Name: "Blue Control"},
			{ID: 3, Name: "Green Ramp"},
		}}
	}
}

func (m *mockCmds) runSearch(query string) tea.Cmd {
	m.searchQueries = append(m.searchQueries, query)
	return func() tea.Msg {
		return SearchDone{Snapshot: search.Snapshot{
			Query:   query,
			Results: []string{"Lightning Bolt", "Lightning Strike"},
		}}
	}
}

func (m *mockCmds) loadHistory() tea.Cmd {
	m.historyCalled = true
	return func() tea.Msg {
		return HistoryLoaded{Entries: []HistoryEntry{{Query: "bolt", Results: 2}}}
	}
}

// newTestApp wires an App with a recording fetch trigger.
func newTestApp(t *testing.T, mock *mockCmds) (App, *[]int) {
	t.Helper()

	var started []int
	orch := panel.NewOrchestrator(func(deckID int) {
		started = append(started, deckID)
	}, nil)

	router := effect.NewRouter(nil)
	router.HandleDeckSelected(func(sel effect.DeckSelected) {
		orch.DeckSelected(sel.DeckID, sel.DeckName)
	})

	app := NewApp(&convo.Tracker{}, router, orch, nil, Commands{
		LoadDeckList: mock.loadDeckList,
		RunSearch:    mock.runSearch,
		LoadHistory:  mock.loadHistory,
	})
	return app, &started
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func typeString(t *testing.T, app App, s string) App {
	t.Helper()
	for _, r := range s {
		var model tea.Model
		if r == ' ' {
			model, _ = app.Update(tea.KeyMsg{Type: tea.KeySpace})
		} else {
			model, _ = app.Update(keyRune(r))
		}
		app = model.(App)
	}
	return app
}

func selectionEffect(deckID int, name string) *effect.Effect {
	return &effect.Effect{
		Name: effect.NameDeckSelected,
		Data: map[string]any{"deck_id": float64(deckID), "deck_name": name},
	}
}

func TestChatEventDeckSelection(t *testing.T) {
	app, started := newTestApp(t, &mockCmds{})

	model, _ := app.Update(ChatEvent{ConversationID: "conv-1", Effect: selectionEffect(42, "Red Aggro")})
	app = model.(App)

	if len(*started) != 1 || (*started)[0] != 42 {
		t.Fatalf("started fetches = %v, want [42]", *started)
	}
	if app.orch.Fetch().Phase != panel.PhaseLoading {
		t.Errorf("phase = %v, want loading", app.orch.Fetch().Phase)
	}

	model, _ = app.Update(DeckLoaded{DeckID: 42, Contents: &deck.Contents{
		DeckID:   42,
		Metadata: deck.Metadata{Name: "Red Aggro"},
		Main:     []deck.Entry{{ID: "bolt", Count: 4, Name: "Lightning Bolt"}},
	}})
	app = model.(App)

	fetch := app.orch.Fetch()
	if fetch.Phase != panel.PhaseLoaded {
		t.Fatalf("phase = %v, want loaded", fetch.Phase)
	}
	if fetch.Contents.MainCount() != 4 {
		t.Errorf("main count = %d, want 4", fetch.Contents.MainCount())
	}
}

func TestStaleDeckLoadDiscarded(t *testing.T) {
	app, started := newTestApp(t, &mockCmds{})

	model, _ := app.Update(ChatEvent{ConversationID: "conv-1", Effect: selectionEffect(1, "First")})
	app = model.(App)
	model, _ = app.Update(ChatEvent{ConversationID: "conv-1", Effect: selectionEffect(2, "Second")})
	app = model.(App)

	if len(*started) != 2 {
		t.Fatalf("started fetches = %v, want two", *started)
	}

	// Deck 1's result arrives after deck 2 was selected.
	model, _ = app.Update(DeckLoaded{DeckID: 1, Contents: &deck.Contents{DeckID: 1}})
	app = model.(App)

	fetch := app.orch.Fetch()
	if fetch.Phase != panel.PhaseLoading {
		t.Errorf("phase = %v, want still loading deck 2", fetch.Phase)
	}
	if id, _ := app.orch.Selection(); id != 2 {
		t.Errorf("selection = %d, want 2", id)
	}
}

func TestConversationChangeResetsPanel(t *testing.T) {
	app, _ := newTestApp(t, &mockCmds{})

	model, _ := app.Update(ChatEvent{ConversationID: "conv-1", Effect: selectionEffect(7, "Old")})
	app = model.(App)

	model, _ = app.Update(ChatEvent{ConversationID: "conv-2"})
	app = model.(App)

	if _, ok := app.orch.Selection(); ok {
		t.Error("selection should be cleared on conversation change")
	}
	if app.orch.Fetch().Phase != panel.PhaseIdle {
		t.Errorf("phase = %v, want idle", app.orch.Fetch().Phase)
	}

	// Deck 7's late result must not resurrect the old panel.
	model, _ = app.Update(DeckLoaded{DeckID: 7, Contents: &deck.Contents{DeckID: 7}})
	app = model.(App)
	if app.orch.Fetch().Phase != panel.PhaseIdle {
		t.Errorf("phase after late result = %v, want idle", app.orch.Fetch().Phase)
	}
}

func TestSameConversationNoReset(t *testing.T) {
	app, _ := newTestApp(t, &mockCmds{})

	model, _ := app.Update(ChatEvent{ConversationID: "conv-1", Effect: selectionEffect(7, "Mine")})
	app = model.(App)
	model, _ = app.Update(DeckLoaded{DeckID: 7, Contents: &deck.Contents{DeckID: 7}})
	app = model.(App)

	// Repeated events for the same conversation leave the panel alone.
	model, _ = app.Update(ChatEvent{ConversationID: "conv-1"})
	app = model.(App)

	if app.orch.Fetch().Phase != panel.PhaseLoaded {
		t.Errorf("phase = %v, want loaded", app.orch.Fetch().Phase)
	}
}

func TestUnrecognizedEffectIgnored(t *testing.T) {
	app, started := newTestApp(t, &mockCmds{})

	model, _ := app.Update(ChatEvent{
		ConversationID: "conv-1",
		Effect:         &effect.Effect{Name: "confetti burst", Data: map[string]any{}},
	})
	app = model.(App)

	if len(*started) != 0 {
		t.Errorf("started fetches = %v, want none", *started)
	}
	if app.orch.Fetch().Phase != panel.PhaseIdle {
		t.Errorf("phase = %v, want idle", app.orch.Fetch().Phase)
	}
}

func TestDeckListNavigationAndSelect(t *testing.T) {
	mock := &mockCmds{}
	app, started := newTestApp(t, mock)

	model, cmd := app.Update(keyRune('d'))
	app = model.(App)
	if !mock.deckListCalled {
		t.Fatal("'d' should request the deck list")
	}
	if cmd == nil {
		t.Fatal("'d' should return a command")
	}

	model, _ = app.Update(cmd())
	app = model.(App)
	if len(app.Decks()) != 3 {
		t.Fatalf("got %d decks, want 3", len(app.Decks()))
	}

	model, _ = app.Update(keyRune('j'))
	app = model.(App)
	if app.DeckCursor() != 1 {
		t.Errorf("cursor = %d, want 1", app.DeckCursor())
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(App)
	if len(*started) != 1 || (*started)[0] != 2 {
		t.Fatalf("started fetches = %v, want [2]", *started)
	}
	if name := app.orch.DeckName(); name != "Blue Control" {
		t.Errorf("deck name = %q, want Blue Control", name)
	}
}

func TestCommandBarSearch(t *testing.T) {
	mock := &mockCmds{}
	app, _ := newTestApp(t, mock)

	model, _ := app.Update(keyRune('/'))
	app = model.(App)
	if !app.CommandOpen() {
		t.Fatal("'/' should open the command bar")
	}

	app = typeString(t, app, "lightning bolt")
	if app.CommandText() != "lightning bolt" {
		t.Fatalf("command text = %q", app.CommandText())
	}

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(App)
	if app.CommandOpen() {
		t.Error("enter should close the command bar")
	}
	if len(mock.searchQueries) != 1 || mock.searchQueries[0] != "lightning bolt" {
		t.Fatalf("search queries = %v", mock.searchQueries)
	}

	model, _ = app.Update(cmd())
	app = model.(App)
	if app.lastSearch.pending {
		t.Error("search should no longer be pending")
	}
	if len(app.lastSearch.snap.Results) != 2 {
		t.Errorf("got %d results, want 2", len(app.lastSearch.snap.Results))
	}
}

func TestCommandBarBackspaceAndCancel(t *testing.T) {
	app, _ := newTestApp(t, &mockCmds{})

	model, _ := app.Update(keyRune('/'))
	app = model.(App)
	app = typeString(t, app, "abc")

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	app = model.(App)
	if app.CommandText() != "ab" {
		t.Errorf("command text = %q, want ab", app.CommandText())
	}

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(App)
	if app.CommandOpen() {
		t.Error("esc should close the command bar")
	}
}

func TestCommandQuit(t *testing.T) {
	app, _ := newTestApp(t, &mockCmds{})

	model, _ := app.Update(keyRune('/'))
	app = model.(App)
	app = typeString(t, app, "quit")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("/quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("/quit produced %T, want tea.QuitMsg", cmd())
	}
}

func TestHistoryCommand(t *testing.T) {
	mock := &mockCmds{}
	app, _ := newTestApp(t, mock)

	model, cmd := app.Update(keyRune('h'))
	app = model.(App)
	if !mock.historyCalled {
		t.Fatal("'h' should request history")
	}

	model, _ = app.Update(cmd())
	app = model.(App)
	if app.mode != modeHistory {
		t.Errorf("mode = %v, want history", app.mode)
	}
	if len(app.history) != 1 {
		t.Errorf("got %d history entries, want 1", len(app.history))
	}
}

func TestViewShowsDeckContents(t *testing.T) {
	app, _ := newTestApp(t, &mockCmds{})

	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	app = model.(App)

	model, _ = app.Update(ChatEvent{ConversationID: "conv-1", Effect: selectionEffect(42, "Red Aggro")})
	app = model.(App)
	model, _ = app.Update(DeckLoaded{DeckID: 42, Contents: &deck.Contents{
		DeckID:   42,
		Metadata: deck.Metadata{Name: "Red Aggro", Format: "standard"},
		Main: []deck.Entry{
			{ID: "bolt", Count: 4, Name: "Lightning Bolt"},
			{ID: "bear", Count: 3, Name: "Grizzly Bears"},
		},
		Sideboard: []deck.Entry{{ID: "pyro", Count: 2, Name: "Pyroblast"}},
	}})
	app = model.(App)

	view := app.View()
	for _, want := range []string{"Red Aggro", "Lightning Bolt", "Deck (7)", "Sideboard (2)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewShowsFetchError(t *testing.T) {
	app, _ := newTestApp(t, &mockCmds{})

	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	app = model.(App)
	model, _ = app.Update(ChatEvent{ConversationID: "conv-1", Effect: selectionEffect(9, "Broken")})
	app = model.(App)
	model, _ = app.Update(DeckLoaded{DeckID: 9, Err: errors.New("deck 9: HTTP 404")})
	app = model.(App)

	view := app.View()
	if !strings.Contains(view, "HTTP 404") {
		t.Error("view should show the fetch error")
	}
	if id, ok := app.orch.Selection(); !ok || id != 9 {
		t.Error("failed fetch should keep the selection")
	}
}

func TestViewNotReady(t *testing.T) {
	app, _ := newTestApp(t, &mockCmds{})
	if app.View() != "Loading..." {
		t.Errorf("view before WindowSizeMsg = %q", app.View())
	}
}
