package deck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchDeck(t *testing.T) {
	body := `{
		"deck_id": 42,
		"metadata": {"name": "Red Aggro", "format": "premier"},
		"leader": {"id": "leader1", "name": "Leader"},
		"base": {"id": "base1"},
		"deck": [
			{"id": "card1", "count": 4, "name": "Strike"},
			{"id": "card2", "count": 3}
		],
		"sideboard": [{"id": "card3", "count": 2}]
	}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/deck/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("access_token") != "tok" {
			t.Errorf("missing access token, query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, "tok", 5*time.Second)
	contents, err := f.Fetch(context.Background(), 42)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if contents.DeckID != 42 {
		t.Errorf("DeckID = %d, want 42", contents.DeckID)
	}
	if contents.Metadata.Name != "Red Aggro" {
		t.Errorf("Name = %q, want Red Aggro", contents.Metadata.Name)
	}
	if contents.Leader == nil || contents.Leader.ID != "leader1" {
		t.Errorf("unexpected leader: %+v", contents.Leader)
	}
	if len(contents.Main) != 2 {
		t.Fatalf("expected 2 main entries, got %d", len(contents.Main))
	}
	if contents.Main[0].ID != "card1" || contents.Main[1].ID != "card2" {
		t.Errorf("main deck order not preserved: %+v", contents.Main)
	}
	if got := contents.MainCount(); got != 7 {
		t.Errorf("MainCount() = %d, want 7", got)
	}
	if got := contents.SideboardCount(); got != 2 {
		t.Errorf("SideboardCount() = %d, want 2", got)
	}
}

func TestFetchDeckIDEchoIgnored(t *testing.T) {
	// Endpoint returns a mismatched deck_id; the requested key wins so
	// stale-result comparison upstream stays keyed on the request.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"deck_id": 999, "metadata": {}, "deck": [], "sideboard": []}`))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, "tok", time.Second)
	contents, err := f.Fetch(context.Background(), 7)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if contents.DeckID != 7 {
		t.Errorf("DeckID = %d, want requested id 7", contents.DeckID)
	}
}

func TestFetchDeckHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(server.URL, "tok", time.Second)
	if _, err := f.Fetch(context.Background(), 42); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestFetchDeckMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, "tok", time.Second)
	if _, err := f.Fetch(context.Background(), 42); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestFetchDeckTransportError(t *testing.T) {
	f := NewFetcher("http://127.0.0.1:1", "tok", 500*time.Millisecond)
	if _, err := f.Fetch(context.Background(), 42); err == nil {
		t.Error("expected error for unreachable server")
	}
}

func TestFetchDeckCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher("http://example.invalid", "tok", time.Second)
	if _, err := f.Fetch(ctx, 42); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFetchList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/decks" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"decks": [
			{"id": 1, "name": "Red Aggro", "is_favorite": true},
			{"id": 2, "name": "Blue Control"}
		]}`))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, "tok", time.Second)
	decks, err := f.FetchList(context.Background())
	if err != nil {
		t.Fatalf("FetchList failed: %v", err)
	}
	if len(decks) != 2 {
		t.Fatalf("expected 2 decks, got %d", len(decks))
	}
	if decks[0].ID != 1 || !decks[0].Favorite {
		t.Errorf("unexpected first deck: %+v", decks[0])
	}
	if decks[1].Name != "Blue Control" {
		t.Errorf("unexpected second deck: %+v", decks[1])
	}
}

func TestFetchListHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(server.URL, "tok", time.Second)
	if _, err := f.FetchList(context.Background()); err == nil {
		t.Error("expected error for 500 response")
	}
}
