// Package theme defines color themes for the ghlc console.
package theme

import "github.com/charmbracelet/lipgloss"

// Theme maps the roles the console draws with to concrete colors. Quota
// severity colors are fixed by the ratelimit package and are not themed.
type Theme struct {
	Name string

	Background    lipgloss.Color // app background behind cards
	Surface       lipgloss.Color // card interiors
	SurfaceHover  lipgloss.Color // active tab
	SurfaceBright lipgloss.Color // selected row
	Border        lipgloss.Color
	BorderAccent  lipgloss.Color // help overlay frame

	TextDim     lipgloss.Color // hints, empty bar track
	TextMuted   lipgloss.Color // labels
	TextPrimary lipgloss.Color // values

	Accent       lipgloss.Color // headers, tab keys
	AccentBright lipgloss.Color // titles, selection marker

	Success lipgloss.Color // settled outcome, active calendar
	Warning lipgloss.Color // rejected settings
	Failure lipgloss.Color // failed outcome
	Code    lipgloss.Color // response bodies, key bindings
}

// Active is the currently selected theme.
var Active = FlexokiDark

// FlexokiDark is the default: warm paper tones on near-black.
var FlexokiDark = Theme{
	Name:          "flexoki-dark",
	Background:    "#100F0F",
	Surface:       "#1C1B1A",
	SurfaceHover:  "#282726",
	SurfaceBright: "#343331",
	Border:        "#403E3C",
	BorderAccent:  "#3AA99F",
	TextDim:       "#575653",
	TextMuted:     "#878580",
	TextPrimary:   "#FFFCF0",
	Accent:        "#3AA99F",
	AccentBright:  "#5BC8BE",
	Success:       "#A3B859",
	Warning:       "#DA702C",
	Failure:       "#D14D41",
	Code:          "#24837B",
}

// CatppuccinMocha is a soft pastel theme.
var CatppuccinMocha = Theme{
	Name:          "catppuccin-mocha",
	Background:    "#1E1E2E",
	Surface:       "#313244",
	SurfaceHover:  "#45475A",
	SurfaceBright: "#585B70",
	Border:        "#585B70",
	BorderAccent:  "#89B4FA",
	TextDim:       "#6C7086",
	TextMuted:     "#A6ADC8",
	TextPrimary:   "#CDD6F4",
	Accent:        "#89B4FA",
	AccentBright:  "#B4D0FB",
	Success:       "#A6E3A1",
	Warning:       "#FAB387",
	Failure:       "#F38BA8",
	Code:          "#94E2D5",
}

// TokyoNight is a cool blue and purple theme.
var TokyoNight = Theme{
	Name:          "tokyo-night",
	Background:    "#1A1B26",
	Surface:       "#24283B",
	SurfaceHover:  "#343A52",
	SurfaceBright: "#414868",
	Border:        "#565F89",
	BorderAccent:  "#7AA2F7",
	TextDim:       "#565F89",
	TextMuted:     "#A9B1D6",
	TextPrimary:   "#C0CAF5",
	Accent:        "#7AA2F7",
	AccentBright:  "#A9C1FF",
	Success:       "#9ECE6A",
	Warning:       "#FF9E64",
	Failure:       "#F7768E",
	Code:          "#7DCFFF",
}

// ClinicLight is a light theme for bright front-desk terminals. Its
// neutrals stay clear of the quota severity greens, ambers and reds.
var ClinicLight = Theme{
	Name:          "clinic-light",
	Background:    "#F4F6F8",
	Surface:       "#FFFFFF",
	SurfaceHover:  "#E3EAF0",
	SurfaceBright: "#D3E0EA",
	Border:        "#B8C4CE",
	BorderAccent:  "#1F6F8B",
	TextDim:       "#9AA5AF",
	TextMuted:     "#5F6B76",
	TextPrimary:   "#1B262C",
	Accent:        "#1F6F8B",
	AccentBright:  "#125570",
	Success:       "#2E7D32",
	Warning:       "#B25E00",
	Failure:       "#C62828",
	Code:          "#3949AB",
}

// Terminal uses ANSI 16 colors only.
var Terminal = Theme{
	Name:          "terminal",
	Background:    "0",
	Surface:       "0",
	SurfaceHover:  "8",
	SurfaceBright: "8",
	Border:        "8",
	BorderAccent:  "6",
	TextDim:       "8",
	TextMuted:     "7",
	TextPrimary:   "15",
	Accent:        "6",
	AccentBright:  "14",
	Success:       "10",
	Warning:       "3",
	Failure:       "1",
	Code:          "6",
}

// All lists the themes in the order settings cycles through them.
var All = []Theme{FlexokiDark, CatppuccinMocha, TokyoNight, ClinicLight, Terminal}

// ByName returns the named theme, or FlexokiDark when unknown.
func ByName(name string) Theme {
	for _, t := range All {
		if t.Name == name {
			return t
		}
	}
	return FlexokiDark
}

// SetActive switches the active theme.
func SetActive(name string) {
	Active = ByName(name)
}

// Names lists the theme names in display order.
func Names() []string {
	names := make([]string, len(All))
	for i, t := range All {
		names[i] = t.Name
	}
	return names
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	for _, t := range All {
		if t.Name == name {
			return true
		}
	}
	return false
}

// Next returns the theme after name, wrapping around.
func Next(name string) Theme {
	for i, t := range All {
		if t.Name == name {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}
