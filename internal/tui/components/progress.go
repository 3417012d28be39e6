package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ghlc/internal/cli"
	"github.com/theirongolddev/ghlc/internal/ratelimit"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

func clampUnit(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 1
	}
	return pct / 100
}

// QuotaBar renders a labeled bar for a 0-100 remaining percentage, the
// remaining/limit figures and an optional reset countdown.
func QuotaBar(label string, pct float64, c ratelimit.Color, remaining, limit int64, resetsAt time.Time, labelW, barWidth int) string {
	t := theme.Active
	unit := clampUnit(pct)

	bar := progress.New(
		progress.WithSolidFill(string(c)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(string(c))).Background(t.Surface).Bold(true)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	countdownStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	out := labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(unit) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", unit*100)) +
		spaceStyle.Render("  ") +
		countStyle.Render(cli.FormatRatio(remaining, limit))

	if !resetsAt.IsZero() {
		out += spaceStyle.Render("  ") + countdownStyle.Render("resets in "+cli.FormatCountdown(time.Until(resetsAt)))
	}
	return out
}

// CompactQuotaBar renders a tiny status-bar-sized quota indicator.
func CompactQuotaBar(label string, pct float64, c ratelimit.Color, width int) string {
	t := theme.Active
	unit := clampUnit(pct)

	barW := max(width-lipgloss.Width(label)-6, 4)

	bar := progress.New(
		progress.WithSolidFill(string(c)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(string(c))).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(label) +
		spaceStyle.Render(" ") +
		bar.ViewAs(unit) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", unit*100))
}
