// Package chat consumes the chat collaborator's event stream.
//
// The collaborator owns the conversation UI and its transport to the
// language-model backend; deckhand only subscribes to the event feed it
// exposes: line-delimited JSON, each line carrying the conversation
// identity and optionally an effect emitted during the conversation. This
// package turns those lines into Bubble Tea messages; deciding whether the
// identity actually changed is the tracker's job, not the stream's.
package chat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/calebwray/deckhand/internal/convo"
	"github.com/calebwray/deckhand/internal/effect"
	"github.com/calebwray/deckhand/internal/otel"
	"github.com/calebwray/deckhand/internal/ui"
)

// reconnectDelay is the pause before re-dialing a dropped stream.
const reconnectDelay = 5 * time.Second

// maxLineBytes bounds a single stream line.
const maxLineBytes = 1 << 20

// sender is the subset of *tea.Program the stream needs. An interface so
// tests can capture messages without a running program.
type sender interface {
	Send(msg tea.Msg)
}

// streamLine is the wire shape of one event from the collaborator.
type streamLine struct {
	ConversationID string         `json:"conversation_id"`
	Effect         *effect.Effect `json:"effect,omitempty"`
}

// Stream reads chat events over HTTP and forwards them to the UI.
// Uses context cancellation as the ONLY stop mechanism.
type Stream struct {
	url    string
	client *http.Client
	events *otel.Logger
	wg     sync.WaitGroup
}

// NewStream creates a Stream for the given event URL. The telemetry logger
// may be nil. The HTTP client carries no timeout: the connection is
// long-lived and bounded by the context.
func NewStream(url string, events *otel.Logger) *Stream {
	return &Stream{
		url:    url,
		client: &http.Client{},
		events: events,
	}
}

// Start begins reading in the background, reconnecting with a fixed delay
// whenever the stream drops. Call with a cancellable context.
func (s *Stream) Start(ctx context.Context, p sender) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			err := s.readOnce(ctx, p)
			if err != nil && ctx.Err() == nil {
				s.events.Error(otel.KindStreamError, "stream", err)
			}
			if p != nil && ctx.Err() == nil {
				p.Send(ui.StreamStatus{Connected: false, Err: err})
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (s *Stream) Wait() {
	s.wg.Wait()
}

// readOnce dials the stream and forwards lines until it drops.
func (s *Stream) readOnce(ctx context.Context, p sender) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson")
	req.Header.Set("User-Agent", "deckhand/0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dial stream: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	s.events.Info(otel.KindStreamConnect, "stream", s.url)
	if p != nil {
		p.Send(ui.StreamStatus{Connected: true})
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev streamLine
		if err := json.Unmarshal(line, &ev); err != nil {
			// A garbled line is not fatal to the stream; skip it.
			s.events.Warn(otel.KindStreamError, "stream", fmt.Sprintf("bad line: %v", err))
			continue
		}

		s.events.Emit(otel.Event{
			Level:   otel.LevelDebug,
			Kind:    otel.KindStreamEvent,
			Comp:    "stream",
			ConvoID: ev.ConversationID,
		})

		if p != nil {
			p.Send(ui.ChatEvent{
				ConversationID: convo.ID(ev.ConversationID),
				Effect:         ev.Effect,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
