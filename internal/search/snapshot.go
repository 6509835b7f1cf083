// Package search provides single-shot card search against the external
// card-search service.
//
// Each Search call produces an immutable Snapshot; a new search replaces the
// previous snapshot rather than mutating it. Failures (validation, transport,
// timeout) are captured on the snapshot's Err field and never escape as
// returned errors.
package search

import (
	"fmt"
	"time"
)

// Snapshot is the immutable result of one search invocation.
type Snapshot struct {
	Query     string    `json:"query"`
	Results   []string  `json:"results"`
	Err       string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// OK reports whether the search completed without error.
func (s Snapshot) OK() bool {
	return s.Err == ""
}

// At returns the result at the given 1-based index, so results can be
// referred to by the numbers shown alongside them.
func (s Snapshot) At(i int) (string, bool) {
	if i < 1 || i > len(s.Results) {
		return "", false
	}
	return s.Results[i-1], true
}

// Map converts the snapshot to a plain structural representation suitable
// for handing to a display surface. SnapshotFromMap round-trips it.
func (s Snapshot) Map() map[string]any {
	results := make([]string, len(s.Results))
	copy(results, s.Results)
	return map[string]any{
		"query":      s.Query,
		"results":    results,
		"error":      s.Err,
		"fetched_at": s.FetchedAt.Format(time.RFC3339Nano),
	}
}

// SnapshotFromMap reconstructs a Snapshot from its structural form.
func SnapshotFromMap(m map[string]any) (Snapshot, error) {
	var s Snapshot

	query, ok := m["query"].(string)
	if !ok {
		return Snapshot{}, fmt.Errorf("snapshot map: query missing or not a string")
	}
	s.Query = query

	switch results := m["results"].(type) {
	case []string:
		s.Results = make([]string, len(results))
		copy(s.Results, results)
	case []any:
		// JSON decoding of the structural form yields []any.
		s.Results = make([]string, 0, len(results))
		for i, r := range results {
			str, ok := r.(string)
			if !ok {
				return Snapshot{}, fmt.Errorf("snapshot map: results[%d] has type %T, want string", i, r)
			}
			s.Results = append(s.Results, str)
		}
	case nil:
		s.Results = nil
	default:
		return Snapshot{}, fmt.Errorf("snapshot map: results has type %T", results)
	}

	if errStr, ok := m["error"].(string); ok {
		s.Err = errStr
	}

	raw, ok := m["fetched_at"].(string)
	if !ok {
		return Snapshot{}, fmt.Errorf("snapshot map: fetched_at missing or not a string")
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot map: parse fetched_at: %w", err)
	}
	s.FetchedAt = fetchedAt

	return s, nil
}
