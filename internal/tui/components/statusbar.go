package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ghlc/internal/ratelimit"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar: key hints, the backend
// and a compact quota bar in the severity colour.
func RenderStatusBar(width int, backend string, quota ratelimit.Snapshot, busy bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	left := " [?]help  [q]uit"
	if busy {
		left += "  " + lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Render("working…")
	}

	var right string
	if quota.Known() {
		right = CompactQuotaBar("quota", quota.RemainingPct(), quota.Color(), 24)
	} else {
		right = lipgloss.NewStyle().Foreground(lipgloss.Color(string(ratelimit.ColorGrey))).
			Background(t.Surface).Render("quota unknown")
	}
	right += spaceStyle.Render(" ")

	mid := ""
	if backend != "" {
		mid = fmt.Sprintf("  %s", backend)
	}

	// Drop the backend label first when space runs out.
	if lipgloss.Width(left)+lipgloss.Width(mid)+lipgloss.Width(right) > width {
		mid = ""
	}
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(mid)-lipgloss.Width(right))

	bar := left + mid + spaceStyle.Render(fmt.Sprintf("%*s", padding, "")) + right
	return style.Render(bar)
}
