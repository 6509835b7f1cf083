package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/calebwray/deckhand/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the telemetry panel showing event stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	// --- Stats section (keyed lookups, not map iteration) ---
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Event Stats"))
	lines = append(lines, fmt.Sprintf("  Effects:    %d received, %d dropped",
		stats[otel.KindEffectReceived], stats[otel.KindEffectDropped]))
	lines = append(lines, fmt.Sprintf("  Decks:      %d selected, %d loaded, %d errors, %d stale drops",
		stats[otel.KindDeckSelected], stats[otel.KindDeckFetchComplete],
		stats[otel.KindDeckFetchError], stats[otel.KindDeckStaleDrop]))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d complete, %d timeouts",
		stats[otel.KindSearchStart], stats[otel.KindSearchComplete], stats[otel.KindSearchTimeout]))
	lines = append(lines, fmt.Sprintf("  Stream:     %d connects, %d events, %d errors",
		stats[otel.KindStreamConnect], stats[otel.KindStreamEvent], stats[otel.KindStreamError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	// --- Recent events section ---
	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		age := time.Since(e.Time)
		ageStr := formatAge(age)

		line := fmt.Sprintf("  %6s  %-22s", ageStr, string(e.Kind))
		if e.DeckID != 0 {
			line += fmt.Sprintf("  deck:%d", e.DeckID)
		}
		if e.Query != "" {
			line += "  q:" + truncateRunes(e.Query, 24)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the telemetry overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("e") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [EVENTS]  " + keys)
}
