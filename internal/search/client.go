package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/calebwray/deckhand/internal/otel"
)

// Timeout is the hard bound on one search call. Exceeding it yields a
// timeout snapshot; there is no automatic retry.
const Timeout = 10 * time.Second

// resultListRe matches the result list block in the upstream HTML response.
var resultListRe = regexp.MustCompile(`(?s)<ul>(.*?)</ul>`)

// resultItemRe matches individual result entries inside the list block.
var resultItemRe = regexp.MustCompile(`(?s)<li>(.*?)</li>`)

// htmlTagRe matches HTML tags for stripping.
var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

// Client performs card searches against the external search endpoint. The
// upstream returns an HTML fragment; the only contract this client depends
// on is "an ordered list of entries", extracted as plain strings.
type Client struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	events   *otel.Logger
}

// NewClient creates a Client for the given endpoint. The telemetry logger
// may be nil.
func NewClient(endpoint string, events *otel.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: Timeout},
		limiter:  rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		events:   events,
	}
}

// Search runs one search and returns its snapshot. Never returns an error:
// validation, transport, timeout, and parse failures are all folded into the
// snapshot's Err field. An empty (or whitespace-only) query is rejected
// before any network traffic.
func (c *Client) Search(ctx context.Context, query string) Snapshot {
	query = strings.TrimSpace(query)
	if query == "" {
		return Snapshot{
			Query:     query,
			Err:       "empty search query",
			FetchedAt: time.Now(),
		}
	}

	c.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindSearchStart,
		Comp:  "search",
		Query: query,
	})
	started := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		return c.fail(query, started, fmt.Errorf("rate limit wait: %w", err))
	}

	form := url.Values{"searchInput": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return c.fail(query, started, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "deckhand/0.1")

	resp, err := c.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.events.Emit(otel.Event{
				Level: otel.LevelWarn,
				Kind:  otel.KindSearchTimeout,
				Comp:  "search",
				Query: query,
				Dur:   time.Since(started),
			})
			return Snapshot{
				Query:     query,
				Err:       fmt.Sprintf("search timed out after %s", c.client.Timeout),
				FetchedAt: time.Now(),
			}
		}
		return c.fail(query, started, fmt.Errorf("search request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(query, started, fmt.Errorf("search request: HTTP %d %s", resp.StatusCode, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(query, started, fmt.Errorf("read response: %w", err))
	}

	results := extractResults(string(body))
	c.events.Emit(otel.Event{
		Level: otel.LevelInfo,
		Kind:  otel.KindSearchComplete,
		Comp:  "search",
		Query: query,
		Count: len(results),
		Dur:   time.Since(started),
	})

	return Snapshot{
		Query:     query,
		Results:   results,
		FetchedAt: time.Now(),
	}
}

// fail builds an error snapshot and records the failure.
func (c *Client) fail(query string, started time.Time, err error) Snapshot {
	c.events.Emit(otel.Event{
		Level: otel.LevelError,
		Kind:  otel.KindSearchError,
		Comp:  "search",
		Query: query,
		Dur:   time.Since(started),
		Err:   err.Error(),
	})
	return Snapshot{
		Query:     query,
		Err:       err.Error(),
		FetchedAt: time.Now(),
	}
}

// isTimeout reports whether err is a client-side deadline expiry.
func isTimeout(err error) bool {
	if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
		return true
	}
	return false
}

// extractResults pulls the ordered result entries out of the upstream HTML.
// No list block means zero results, not a failure. Upstream order is
// preserved; nested tags are stripped.
func extractResults(html string) []string {
	listMatch := resultListRe.FindStringSubmatch(html)
	if listMatch == nil {
		return nil
	}

	items := resultItemRe.FindAllStringSubmatch(listMatch[1], -1)
	results := make([]string, 0, len(items))
	for _, item := range items {
		cleaned := strings.TrimSpace(htmlTagRe.ReplaceAllString(item[1], ""))
		if cleaned != "" {
			results = append(results, cleaned)
		}
	}
	if len(results) == 0 {
		return nil
	}
	return results
}
