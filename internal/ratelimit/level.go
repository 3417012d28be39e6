package ratelimit

import "fmt"

// Level is a discrete severity bucket derived from remaining/limit.
type Level int

// Levels from least to most severe. LevelUnknown means no limit is known.
const (
	LevelUnknown Level = iota
	LevelGood
	LevelWarning
	LevelDanger
	LevelCritical
)

// Color is a display colour as a hex RGB string.
type Color string

// Fixed palette; not configurable.
const (
	ColorGreen   Color = "#4caf50"
	ColorAmber   Color = "#ff9800"
	ColorRed     Color = "#f44336"
	ColorDarkRed Color = "#d32f2f"
	ColorGrey    Color = "#9e9e9e"
)

// LevelFor buckets remaining/limit:
//
//	limit == 0        unknown
//	pct > 70          good
//	30 < pct <= 70    warning
//	10 < pct <= 30    danger
//	pct <= 10         critical
func LevelFor(remaining, limit int64) Level {
	if limit == 0 {
		return LevelUnknown
	}
	pct := float64(remaining) / float64(limit) * 100
	switch {
	case pct > 70:
		return LevelGood
	case pct > 30:
		return LevelWarning
	case pct > 10:
		return LevelDanger
	default:
		return LevelCritical
	}
}

func (l Level) String() string {
	switch l {
	case LevelGood:
		return "good"
	case LevelWarning:
		return "warning"
	case LevelDanger:
		return "danger"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Color maps the level to its display colour.
func (l Level) Color() Color {
	switch l {
	case LevelGood:
		return ColorGreen
	case LevelWarning:
		return ColorAmber
	case LevelDanger:
		return ColorRed
	case LevelCritical:
		return ColorDarkRed
	default:
		return ColorGrey
	}
}

// Message is the dashboard headline for a snapshot at this level.
func (l Level) Message(s Snapshot) string {
	switch l {
	case LevelGood:
		return "Rate limits are healthy"
	case LevelWarning:
		return fmt.Sprintf("Heads up: %d of %d requests remaining", s.Remaining, s.Limit)
	case LevelDanger:
		return fmt.Sprintf("Warning: few requests remaining (%d)", s.Remaining)
	case LevelCritical:
		return "Critical: rate limit almost exhausted"
	default:
		return "Rate limit information not available"
	}
}

// MarshalText lets levels render as names in JSON and YAML output.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}
