package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/calebwray/deckhand/internal/chat"
	"github.com/calebwray/deckhand/internal/config"
	"github.com/calebwray/deckhand/internal/convo"
	"github.com/calebwray/deckhand/internal/deck"
	"github.com/calebwray/deckhand/internal/effect"
	"github.com/calebwray/deckhand/internal/logging"
	"github.com/calebwray/deckhand/internal/otel"
	"github.com/calebwray/deckhand/internal/panel"
	"github.com/calebwray/deckhand/internal/search"
	"github.com/calebwray/deckhand/internal/store"
	"github.com/calebwray/deckhand/internal/ui"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	if err := logging.Init(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Failed to load config", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal("Invalid config", "err", err)
	}

	// Data directory: ~/.deckhand/
	homeDir, err := os.UserHomeDir()
	if err != nil {
		logging.Fatal("Failed to get home directory", "err", err)
	}
	dataDir := filepath.Join(homeDir, ".deckhand")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		logging.Fatal("Failed to create data directory", "err", err)
	}

	// Telemetry: JSONL event log plus in-memory ring for the overlay
	eventPath := filepath.Join(dataDir, fmt.Sprintf("events-%s.jsonl", time.Now().Format("2006-01-02")))
	eventFile, err := os.OpenFile(eventPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logging.Fatal("Failed to open event log", "err", err)
	}
	events := otel.NewLogger(eventFile)
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	defer func() {
		events.Close()
		eventFile.Close()
	}()
	events.Info(otel.KindStartup, "main", "deckhand starting")

	// Open store (search history)
	st, err := store.Open(filepath.Join(dataDir, "deckhand.db"))
	if err != nil {
		logging.Fatal("Failed to open database", "err", err)
	}
	defer st.Close()

	// Clients
	fetcher := deck.NewFetcher(cfg.Deck.APIBase, cfg.Deck.AccessToken, cfg.Deck.FetchTimeout())
	searcher := search.NewClient(cfg.Search.Endpoint, events)

	// State core. The orchestrator's fetch trigger sends results back into
	// the event loop via program.Send; program is assigned below, before any
	// selection can fire.
	var program *tea.Program

	orch := panel.NewOrchestrator(func(deckID int) {
		go func() {
			contents, err := fetcher.Fetch(ctx, deckID)
			if program != nil {
				program.Send(ui.DeckLoaded{DeckID: deckID, Contents: &contents, Err: err})
			}
		}()
	}, events)

	router := effect.NewRouter(events)
	router.HandleDeckSelected(func(sel effect.DeckSelected) {
		orch.DeckSelected(sel.DeckID, sel.DeckName)
	})

	app := ui.NewApp(&convo.Tracker{}, router, orch, ring, ui.Commands{
		LoadDeckList: func() tea.Cmd {
			return func() tea.Msg {
				decks, err := fetcher.FetchList(ctx)
				return ui.DeckListLoaded{Decks: decks, Err: err}
			}
		},
		RunSearch: func(query string) tea.Cmd {
			return func() tea.Msg {
				snap := searcher.Search(ctx, query)
				if _, err := st.RecordSearch(store.Search{
					Query:       snap.Query,
					ResultCount: len(snap.Results),
					Err:         snap.Err,
					SearchedAt:  snap.FetchedAt,
				}); err != nil {
					events.Error(otel.KindStoreError, "store", err)
				}
				return ui.SearchDone{Snapshot: snap}
			}
		},
		LoadHistory: func() tea.Cmd {
			return func() tea.Msg {
				recent, err := st.RecentSearches(cfg.UI.HistoryLimit)
				if err != nil {
					return ui.HistoryLoaded{Err: err}
				}
				entries := make([]ui.HistoryEntry, len(recent))
				for i, r := range recent {
					entries[i] = ui.HistoryEntry{Query: r.Query, Results: r.ResultCount, When: r.SearchedAt}
				}
				return ui.HistoryLoaded{Entries: entries}
			}
		},
	})

	program = tea.NewProgram(app, tea.WithAltScreen())

	// Subscribe to the chat collaborator's event stream
	stream := chat.NewStream(cfg.Chat.StreamURL, events)
	stream.Start(ctx, program)

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		logging.Error("Error running program", "err", err)
	}

	// Graceful shutdown
	cancel()
	stream.Wait()
	events.Info(otel.KindShutdown, "main", "deckhand stopped")
}
