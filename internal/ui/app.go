package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/calebwray/deckhand/internal/convo"
	"github.com/calebwray/deckhand/internal/deck"
	"github.com/calebwray/deckhand/internal/effect"
	"github.com/calebwray/deckhand/internal/otel"
	"github.com/calebwray/deckhand/internal/panel"
)

// viewMode selects which main view is rendered.
type viewMode int

const (
	modeDeck viewMode = iota
	modeDeckList
	modeSearch
	modeHistory
)

// Commands are the injected Cmd factories for background work.
// App never touches the network or the store directly.
type Commands struct {
	LoadDeckList func() tea.Cmd
	RunSearch    func(query string) tea.Cmd
	LoadHistory  func() tea.Cmd
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold clients or the store. It receives results via
// messages; the panel orchestrator's fetch trigger is wired up outside.
type App struct {
	tracker *convo.Tracker
	router  *effect.Router
	orch    *panel.Orchestrator
	ring    *otel.RingBuffer // nil disables the telemetry overlay
	cmds    Commands

	mode      viewMode
	showDebug bool

	// command bar ("/" input)
	commandOn bool
	command   string

	// deck list view
	decks        []deck.Summary
	deckCursor   int
	decksLoading bool

	// search view
	lastSearch searchView

	// history view
	history []HistoryEntry

	spin     spinner.Model
	streamUp bool
	width    int
	height   int
	ready    bool
	err      error
}

// NewApp creates the root model. The router must already have its deck
// selection handler wired to the orchestrator.
func NewApp(tracker *convo.Tracker, router *effect.Router, orch *panel.Orchestrator, ring *otel.RingBuffer, cmds Commands) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StatusBarKey
	return App{
		tracker: tracker,
		router:  router,
		orch:    orch,
		ring:    ring,
		cmds:    cmds,
		spin:    sp,
	}
}

// Init starts the spinner ticker.
func (a App) Init() tea.Cmd {
	return a.spin.Tick
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case ChatEvent:
		if a.tracker.Observe(msg.ConversationID) {
			a.orch.ConversationChanged(msg.ConversationID)
		}
		if msg.Effect != nil {
			a.router.Dispatch(*msg.Effect)
		}
		return a, nil

	case DeckLoaded:
		var contents deck.Contents
		if msg.Contents != nil {
			contents = *msg.Contents
		}
		a.orch.FetchResolved(msg.DeckID, contents, msg.Err)
		return a, nil

	case DeckListLoaded:
		a.decksLoading = false
		if msg.Err != nil {
			a.err = msg.Err
		} else {
			a.decks = msg.Decks
			a.err = nil
			if a.deckCursor >= len(a.decks) && len(a.decks) > 0 {
				a.deckCursor = len(a.decks) - 1
			}
		}
		return a, nil

	case SearchDone:
		a.lastSearch.apply(msg.Snapshot)
		a.mode = modeSearch
		return a, nil

	case HistoryLoaded:
		if msg.Err != nil {
			a.err = msg.Err
		} else {
			a.history = msg.Entries
			a.err = nil
			a.mode = modeHistory
		}
		return a, nil

	case StreamStatus:
		a.streamUp = msg.Connected
		if msg.Err != nil {
			a.err = msg.Err
		}
		return a, nil
	}

	return a, nil
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.commandOn {
		return a.handleCommandKey(msg)
	}

	// Clear any existing error on key press
	if a.err != nil {
		a.err = nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "/":
		a.commandOn = true
		a.command = ""
		return a, nil

	case "e":
		a.showDebug = !a.showDebug
		return a, nil

	case "esc":
		a.mode = modeDeck
		return a, nil

	case "d":
		if a.cmds.LoadDeckList != nil {
			a.mode = modeDeckList
			a.decksLoading = true
			return a, a.cmds.LoadDeckList()
		}
		return a, nil

	case "h":
		if a.cmds.LoadHistory != nil {
			return a, a.cmds.LoadHistory()
		}
		return a, nil

	case "j", "down":
		if a.mode == modeDeckList && a.deckCursor < len(a.decks)-1 {
			a.deckCursor++
		}
		return a, nil

	case "k", "up":
		if a.mode == modeDeckList && a.deckCursor > 0 {
			a.deckCursor--
		}
		return a, nil

	case "g", "home":
		a.deckCursor = 0
		return a, nil

	case "G", "end":
		if a.mode == modeDeckList && len(a.decks) > 0 {
			a.deckCursor = len(a.decks) - 1
		}
		return a, nil

	case "enter":
		if a.mode == modeDeckList && a.deckCursor < len(a.decks) {
			d := a.decks[a.deckCursor]
			// A manual pick takes the same path as a chat selection.
			a.router.Dispatch(effect.Effect{
				Name: effect.NameDeckSelected,
				Data: map[string]any{"deck_id": d.ID, "deck_name": d.Name},
			})
			a.mode = modeDeck
		}
		return a, nil
	}

	return a, nil
}

// handleCommandKey processes keys while the command bar is open.
func (a App) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		a.commandOn = false
		a.command = ""
		return a, nil

	case "enter":
		a.commandOn = false
		cmd := a.command
		a.command = ""
		return a.executeCommand(cmd)

	case "backspace":
		if len(a.command) > 0 {
			runes := []rune(a.command)
			a.command = string(runes[:len(runes)-1])
		}
		return a, nil

	default:
		switch msg.Type {
		case tea.KeyRunes:
			a.command += string(msg.Runes)
		case tea.KeySpace:
			a.command += " "
		}
		return a, nil
	}
}

// executeCommand runs one command bar entry. Unrecognized input is treated
// as a card search query, so "/lightning bolt" just works.
func (a App) executeCommand(input string) (tea.Model, tea.Cmd) {
	input = strings.TrimSpace(input)
	if input == "" {
		return a, nil
	}

	word, rest, _ := strings.Cut(input, " ")
	switch word {
	case "quit", "q":
		return a, tea.Quit

	case "decks":
		if a.cmds.LoadDeckList != nil {
			a.mode = modeDeckList
			a.decksLoading = true
			return a, a.cmds.LoadDeckList()
		}
		return a, nil

	case "history":
		if a.cmds.LoadHistory != nil {
			return a, a.cmds.LoadHistory()
		}
		return a, nil

	case "search":
		input = strings.TrimSpace(rest)
		if input == "" {
			return a, nil
		}
	}

	if a.cmds.RunSearch != nil {
		a.lastSearch.begin(input)
		a.mode = modeSearch
		return a, a.cmds.RunSearch(input)
	}
	return a, nil
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.showDebug {
		overlay := debugOverlay(a.ring, a.width, a.height-1)
		return overlay + "\n" + debugStatusBar(a.width)
	}

	// Content height: subtract status bar, command bar and error bar when shown
	contentHeight := a.height - 1
	if a.commandOn {
		contentHeight--
	}
	if a.err != nil {
		contentHeight--
	}

	var content string
	switch a.mode {
	case modeDeckList:
		content = renderDeckList(a.decks, a.deckCursor, a.decksLoading, a.spin.View(), a.width, contentHeight)
	case modeSearch:
		content = renderSearch(a.lastSearch, a.spin.View(), a.width, contentHeight)
	case modeHistory:
		content = renderHistory(a.history, a.width, contentHeight)
	default:
		content = renderDeckPanel(a.orch, a.spin.View(), a.width, contentHeight)
	}

	commandBar := ""
	if a.commandOn {
		commandBar = renderCommandBar(a.command, a.width)
	}

	errorBar := ""
	if a.err != nil {
		errorBar = ErrorStyle.Width(a.width).Render("Error: " + a.err.Error() + " (press any key to dismiss)")
	}

	statusBar := renderStatusBar(a.mode, a.streamUp, a.tracker.Current(), a.orch.Fetch().Phase, a.width)

	return content + commandBar + errorBar + statusBar
}

// Mode helpers for testing.

// CommandOpen reports whether the command bar is open (for testing).
func (a App) CommandOpen() bool { return a.commandOn }

// CommandText returns the current command bar contents (for testing).
func (a App) CommandText() string { return a.command }

// Decks returns the loaded deck list (for testing).
func (a App) Decks() []deck.Summary { return a.decks }

// DeckCursor returns the deck list cursor (for testing).
func (a App) DeckCursor() int { return a.deckCursor }
