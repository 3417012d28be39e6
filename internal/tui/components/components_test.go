package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/ghlc/internal/ratelimit"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToTotal(t *testing.T) {
	for _, total := range []int{80, 81, 119, 180} {
		sum := 0
		for _, w := range LayoutRow(total, 3) {
			sum += w
		}
		if sum != total {
			t.Errorf("LayoutRow(%d, 3) sums to %d", total, sum)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Error("LayoutRow with n=0 should be nil")
	}
}

func TestCardRowHeightMatchesTallest(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := lipgloss.Height(shortCard)
	tallLines := lipgloss.Height(tallCard)
	if shortLines >= tallLines {
		t.Fatal("test setup error: short card should be shorter than tall card")
	}

	lines := strings.Split(CardRow([]string{tallCard, shortCard}), "\n")
	if len(lines) != tallLines {
		t.Fatalf("joined height = %d, want %d", len(lines), tallLines)
	}
	for i := shortLines; i < len(lines); i++ {
		if !strings.Contains(lines[i], "\x1b[") {
			t.Errorf("line %d has no background styling", i)
		}
	}
	w := lipgloss.Width(lines[0])
	for i, line := range lines {
		if lipgloss.Width(line) != w {
			t.Errorf("line %d width = %d, want %d", i, lipgloss.Width(line), w)
		}
	}
}

func TestTabVisualWidthMatchesRender(t *testing.T) {
	for active := range Tabs {
		total := 0
		for i, tab := range Tabs {
			total += TabVisualWidth(tab, i == active)
		}
		total += len(Tabs) - 1 // separators
		bar := RenderTabBar(active, total)
		if got := lipgloss.Width(bar); got != total {
			t.Errorf("active=%d: bar width = %d, want %d", active, got, total)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('u'); got != TabQuota {
		t.Errorf("TabIdxByKey('u') = %d", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Errorf("TabIdxByKey('z') = %d", got)
	}
}

func TestStatusBarShowsUnknownQuota(t *testing.T) {
	out := RenderStatusBar(100, "http://localhost:8000/api/ghl", ratelimit.Snapshot{}, false)
	if !strings.Contains(out, "quota unknown") {
		t.Errorf("status bar = %q", out)
	}
	if got := lipgloss.Width(out); got != 100 {
		t.Errorf("width = %d, want 100", got)
	}
}

func TestStatusBarUsesLevelColor(t *testing.T) {
	out := RenderStatusBar(100, "", ratelimit.Snapshot{Remaining: 5, Limit: 100}, false)
	// #d32f2f = rgb(211,47,47)
	if !strings.Contains(out, "211;47;47") {
		t.Errorf("critical colour missing from %q", out)
	}
}

func TestSparklineScalesToPeak(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	defer lipgloss.SetColorProfile(termenv.TrueColor)

	if got := Sparkline([]float64{0, 50, 100}, 100, "#fff"); got != "▁▄█" {
		t.Errorf("Sparkline = %q", got)
	}
	if got := Sparkline([]float64{10, 20}, 0, "#fff"); got != "▄█" {
		t.Errorf("auto-peak Sparkline = %q", got)
	}
	if Sparkline(nil, 0, "#fff") != "" {
		t.Error("empty sparkline should be empty")
	}
}
