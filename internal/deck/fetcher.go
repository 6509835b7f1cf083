package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fetcher retrieves deck contents and deck lists over HTTP.
type Fetcher struct {
	base   string // API base URL, no trailing slash
	token  string // access token, sent as a query parameter
	client *http.Client
}

// NewFetcher creates a Fetcher against the given API base. A zero timeout
// means no client-side deadline; callers bound the call through ctx if they
// need one.
func NewFetcher(base, token string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		base:  base,
		token: token,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the contents of one deck. The returned error covers
// transport failures, non-2xx statuses, and malformed bodies; callers fold
// it into their own failure state rather than letting it escape.
func (f *Fetcher) Fetch(ctx context.Context, deckID int) (Contents, error) {
	if ctx.Err() != nil {
		return Contents{}, ctx.Err()
	}

	url := fmt.Sprintf("%s/api/deck/%d?access_token=%s", f.base, deckID, f.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Contents{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "deckhand/0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return Contents{}, fmt.Errorf("fetch deck %d: %w", deckID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Contents{}, fmt.Errorf("fetch deck %d: HTTP %d %s", deckID, resp.StatusCode, resp.Status)
	}

	var contents Contents
	if err := json.NewDecoder(resp.Body).Decode(&contents); err != nil {
		return Contents{}, fmt.Errorf("decode deck %d: %w", deckID, err)
	}

	// The endpoint echoes the id back; trust the request key so stale-result
	// comparison upstream is always against the id we asked for.
	contents.DeckID = deckID
	return contents, nil
}

// FetchList retrieves the user's saved deck list.
func (f *Fetcher) FetchList(ctx context.Context) ([]Summary, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	url := fmt.Sprintf("%s/api/decks?access_token=%s", f.base, f.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "deckhand/0.1")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch deck list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch deck list: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	var body struct {
		Decks []Summary `json:"decks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode deck list: %w", err)
	}
	return body.Decks, nil
}
