// Package ratelimit tracks the quota counters reported by the backend and
// derives a severity level and display colour from them.
package ratelimit

import (
	"time"

	"github.com/tidwall/gjson"
)

// Snapshot is the last quota report seen. A zero Snapshot means unknown.
type Snapshot struct {
	Remaining      int64     `json:"remaining" yaml:"remaining"`
	Limit          int64     `json:"limit" yaml:"limit"`
	Used           int64     `json:"used" yaml:"used"`
	DailyRemaining int64     `json:"daily_remaining" yaml:"daily_remaining"`
	DailyLimit     int64     `json:"daily_limit" yaml:"daily_limit"`
	ResetAt        time.Time `json:"reset_at,omitempty" yaml:"reset_at,omitempty"`
	LastUpdated    time.Time `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// Known reports whether the snapshot carries a window capacity.
func (s Snapshot) Known() bool {
	return s.Limit != 0
}

// Level is the severity bucket for the snapshot's remaining window quota.
func (s Snapshot) Level() Level {
	return LevelFor(s.Remaining, s.Limit)
}

// Color is the display colour for the snapshot's level.
func (s Snapshot) Color() Color {
	return s.Level().Color()
}

// RemainingPct is remaining/limit as 0-100, clamped for display.
func (s Snapshot) RemainingPct() float64 {
	return clampPct(s.Remaining, s.Limit)
}

// DailyRemainingPct is dailyRemaining/dailyLimit as 0-100, clamped for display.
func (s Snapshot) DailyRemainingPct() float64 {
	return clampPct(s.DailyRemaining, s.DailyLimit)
}

// DailyUsed is dailyLimit-dailyRemaining, never negative.
func (s Snapshot) DailyUsed() int64 {
	if s.DailyLimit <= 0 {
		return 0
	}
	return max(0, s.DailyLimit-s.DailyRemaining)
}

func clampPct(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	pct := float64(part) / float64(whole) * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// parseSnapshot extracts the rate_limit object from a response body.
// ok is false when the body has no such object.
func parseSnapshot(raw []byte) (snap Snapshot, ok bool) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return Snapshot{}, false
	}
	rl := gjson.GetBytes(raw, "rate_limit")
	if !rl.IsObject() {
		return Snapshot{}, false
	}

	snap = Snapshot{
		Remaining:      intField(rl, "remaining"),
		Limit:          intField(rl, "limit"),
		DailyRemaining: intField(rl, "daily_remaining"),
		DailyLimit:     intField(rl, "daily_limit"),
	}

	if used := rl.Get("used"); used.Exists() && used.Type != gjson.Null {
		snap.Used = intField(rl, "used")
	} else if snap.Limit > 0 {
		snap.Used = max(0, snap.Limit-snap.Remaining)
	}

	if reset := intField(rl, "reset"); reset > 0 {
		snap.ResetAt = time.Unix(reset, 0)
	}
	return snap, true
}

// intField reads a numeric field, accepting numeric strings. Anything else is 0.
func intField(obj gjson.Result, key string) int64 {
	v := obj.Get(key)
	switch v.Type {
	case gjson.Number:
		return int64(v.Num)
	case gjson.String:
		return v.Int()
	default:
		return 0
	}
}
