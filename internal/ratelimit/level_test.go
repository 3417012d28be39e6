package ratelimit

import "testing"

func TestLevelForBoundaries(t *testing.T) {
	tests := []struct {
		remaining, limit int64
		want             Level
	}{
		{100, 100, LevelGood},
		{71, 100, LevelGood},
		{70, 100, LevelWarning},
		{31, 100, LevelWarning},
		{30, 100, LevelDanger},
		{11, 100, LevelDanger},
		{10, 100, LevelCritical},
		{0, 100, LevelCritical},
		{-5, 100, LevelCritical},
		{150, 100, LevelGood},
		{7, 10, LevelWarning},
		{1, 10, LevelCritical},
		{2, 3, LevelWarning},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.remaining, tt.limit); got != tt.want {
			t.Errorf("LevelFor(%d, %d) = %s, want %s", tt.remaining, tt.limit, got, tt.want)
		}
	}
}

func TestLevelUnknownWhenLimitZero(t *testing.T) {
	for _, remaining := range []int64{0, 1, 50, 1000, -1} {
		if got := LevelFor(remaining, 0); got != LevelUnknown {
			t.Errorf("LevelFor(%d, 0) = %s, want unknown", remaining, got)
		}
	}
}

func TestLevelColors(t *testing.T) {
	want := map[Level]Color{
		LevelGood:     ColorGreen,
		LevelWarning:  ColorAmber,
		LevelDanger:   ColorRed,
		LevelCritical: ColorDarkRed,
		LevelUnknown:  ColorGrey,
	}
	for lvl, c := range want {
		if got := lvl.Color(); got != c {
			t.Errorf("%s.Color() = %s, want %s", lvl, got, c)
		}
	}
}

func TestLevelMessage(t *testing.T) {
	s := Snapshot{Remaining: 40, Limit: 100}
	if got := s.Level().Message(s); got != "Heads up: 40 of 100 requests remaining" {
		t.Errorf("warning message = %q", got)
	}
	if got := LevelUnknown.Message(Snapshot{}); got != "Rate limit information not available" {
		t.Errorf("unknown message = %q", got)
	}
}

func TestSnapshotDisplayClamps(t *testing.T) {
	s := Snapshot{Remaining: 150, Limit: 100, DailyRemaining: 6000, DailyLimit: 5000}
	if got := s.RemainingPct(); got != 100 {
		t.Errorf("RemainingPct = %v, want 100", got)
	}
	if got := s.DailyRemainingPct(); got != 100 {
		t.Errorf("DailyRemainingPct = %v, want 100", got)
	}
	if got := s.DailyUsed(); got != 0 {
		t.Errorf("DailyUsed = %d, want 0", got)
	}
	// Stored values are untouched by display clamping.
	if s.Remaining != 150 || s.DailyRemaining != 6000 {
		t.Fatal("display helpers mutated the snapshot")
	}

	neg := Snapshot{Remaining: -3, Limit: 10}
	if got := neg.RemainingPct(); got != 0 {
		t.Errorf("RemainingPct = %v, want 0", got)
	}
}
