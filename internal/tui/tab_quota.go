package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ghlc/internal/cli"
	"github.com/theirongolddev/ghlc/internal/console"
	"github.com/theirongolddev/ghlc/internal/ratelimit"
	"github.com/theirongolddev/ghlc/internal/store"
	"github.com/theirongolddev/ghlc/internal/tui/components"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

type quotaState struct {
	out     outcome
	fetched bool      // first activation has probed the endpoint
	series  []float64 // remaining percentage, oldest first
}

type quotaProbeMsg struct{ err error }

type historyMsg struct {
	values []float64
	err    error
}

func probeQuotaCmd(ctx context.Context, sess *console.Session) tea.Cmd {
	return func() tea.Msg {
		_, err := sess.RateLimit(ctx)
		return quotaProbeMsg{err: err}
	}
}

func loadHistoryCmd(ctx context.Context, h *store.History) tea.Cmd {
	return func() tea.Msg {
		entries, err := h.Recent(ctx, sparklineLen)
		if err != nil {
			return historyMsg{err: err}
		}
		// Recent is newest first.
		values := make([]float64, 0, len(entries))
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].Snapshot.Known() {
				values = append(values, entries[i].Snapshot.RemainingPct())
			}
		}
		return historyMsg{values: values}
	}
}

func (q *quotaState) push(snap ratelimit.Snapshot) {
	if !snap.Known() {
		return
	}
	q.series = append(q.series, snap.RemainingPct())
	if n := len(q.series); n > sparklineLen {
		q.series = q.series[n-sparklineLen:]
	}
}

// seed prepends recorded history ahead of anything observed live.
func (q *quotaState) seed(values []float64) {
	merged := make([]float64, 0, len(values)+len(q.series))
	merged = append(merged, values...)
	merged = append(merged, q.series...)
	if n := len(merged); n > sparklineLen {
		merged = merged[n-sparklineLen:]
	}
	q.series = merged
}

func (a App) quotaKey(key string) (tea.Model, tea.Cmd, bool) {
	if key != "r" {
		return a, nil, false
	}
	if a.quotaTab.out.loading() {
		return a, nil, true
	}
	a.quotaTab.fetched = true
	a.quotaTab.out = a.quotaTab.out.start()
	return a, probeQuotaCmd(a.ctx, a.sess), true
}

func (a App) renderQuotaTab(cw int) string {
	t := theme.Active
	snap := a.quota
	level := snap.Level()
	levelColor := lipgloss.Color(string(level.Color()))

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	levelStyle := lipgloss.NewStyle().Foreground(levelColor).Background(t.Surface).Bold(true)

	var b strings.Builder

	// Row 1: metric cards
	widths := components.LayoutRow(cw, 4)
	remaining, daily, reset := "-", "-", "-"
	if snap.Known() {
		remaining = cli.FormatRatio(snap.Remaining, snap.Limit)
		if !snap.ResetAt.IsZero() {
			reset = cli.FormatCountdown(time.Until(snap.ResetAt))
		}
	}
	if snap.DailyLimit > 0 {
		daily = cli.FormatRatio(snap.DailyUsed(), snap.DailyLimit)
	}
	b.WriteString(components.CardRow([]string{
		components.MetricCard("Level", level.String(), "", levelColor, widths[0]),
		components.MetricCard("Remaining", remaining, "this window", "", widths[1]),
		components.MetricCard("Daily used", daily, "", "", widths[2]),
		components.MetricCard("Resets in", reset, "", "", widths[3]),
	}))
	b.WriteString("\n")

	// Bars
	innerW := components.CardInnerWidth(cw)
	barW := max(innerW-52, 10)
	var bars strings.Builder
	bars.WriteString(levelStyle.Render(level.Message(snap)))
	bars.WriteString("\n\n")
	if snap.Known() {
		bars.WriteString(components.QuotaBar("Window", snap.RemainingPct(), level.Color(),
			snap.Remaining, snap.Limit, snap.ResetAt, 8, barW))
		bars.WriteString("\n")
	}
	if snap.DailyLimit > 0 {
		dailyLevel := ratelimit.LevelFor(snap.DailyRemaining, snap.DailyLimit)
		bars.WriteString(components.QuotaBar("Daily", snap.DailyRemainingPct(), dailyLevel.Color(),
			snap.DailyRemaining, snap.DailyLimit, time.Time{}, 8, barW))
		bars.WriteString("\n")
	}
	updated := "never"
	if !snap.LastUpdated.IsZero() {
		updated = cli.FormatAgo(snap.LastUpdated, time.Now())
	}
	bars.WriteString("\n")
	bars.WriteString(labelStyle.Render("Last updated: ") + valueStyle.Render(updated))
	bars.WriteString("\n\n")
	bars.WriteString(a.statusLine(a.quotaTab.out, "Press r to refresh"))
	b.WriteString(components.ContentCard("Quota", bars.String(), cw))

	// Trend
	if len(a.quotaTab.series) > 0 {
		series := a.quotaTab.series
		if w := components.CardInnerWidth(cw); len(series) > w {
			series = series[len(series)-w:]
		}
		trend := components.Sparkline(series, 100, levelColor) + "\n" +
			labelStyle.Render(fmt.Sprintf("remaining %% over the last %d updates", len(series)))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Trend", trend, cw))
	}

	return b.String()
}
