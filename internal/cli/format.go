// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-100 value as a percentage string.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatRatio renders "remaining / limit", or "-" when the limit is unknown.
func FormatRatio(remaining, limit int64) string {
	if limit == 0 {
		return "-"
	}
	return FormatNumber(remaining) + " / " + FormatNumber(limit)
}

// FormatCountdown formats a duration until an event.
// e.g., 3725s -> "1h 2m", 125s -> "2m 5s", 45s -> "45s"
func FormatCountdown(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	secs := int64(d.Round(time.Second).Seconds())
	hours := secs / 3600
	mins := (secs % 3600) / 60
	rem := secs % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, rem)
	default:
		return fmt.Sprintf("%ds", rem)
	}
}

// FormatTime renders t in local time, or "-" when zero.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// FormatAgo renders how long before now t was, e.g. "3m ago".
func FormatAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	if d < time.Second {
		return "just now"
	}
	return FormatCountdown(d) + " ago"
}

// FormatISOTime re-renders an ISO-8601 timestamp from the backend in local
// time. Unparseable input is returned unchanged.
func FormatISOTime(s string) string {
	if s == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Truncate shortens s to n runes with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
