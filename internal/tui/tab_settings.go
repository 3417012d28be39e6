package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/theirongolddev/ghlc/internal/config"
	"github.com/theirongolddev/ghlc/internal/tui/components"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

const (
	settingsFieldBaseURL = iota
	settingsFieldTimeout
	settingsFieldTheme
	settingsFieldLogLevel
	settingsFieldMonitorAddr
	settingsFieldHistory
	settingsFieldCount // sentinel
)

type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func (s *settingsState) move(delta int) {
	s.cursor = min(max(s.cursor+delta, 0), settingsFieldCount-1)
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.settings.move(1)
	case "k", "up":
		a.settings.move(-1)
	case "enter":
		model, cmd := a.settingsStartEdit()
		return model, cmd, true
	case " ":
		if a.settings.cursor != settingsFieldTheme {
			return a, nil, false
		}
		a.settings.input = newSettingsInput()
		a.settings.input.SetValue(theme.Next(a.cfg.Appearance.Theme).Name)
		a.settingsSave()
		a.settings.saved = a.settings.saveErr == nil
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldBaseURL:
		ti.Placeholder = "http://localhost:8000/api/ghl"
		ti.SetValue(a.cfg.API.BaseURL)
	case settingsFieldTimeout:
		ti.Placeholder = "seconds, 0 for no timeout"
		ti.SetValue(strconv.Itoa(a.cfg.API.TimeoutSec))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldLogLevel:
		ti.Placeholder = "debug, info, warn, error"
		ti.SetValue(a.cfg.Log.Level)
	case settingsFieldMonitorAddr:
		ti.Placeholder = "127.0.0.1:8788"
		ti.SetValue(a.cfg.Monitor.Addr)
	case settingsFieldHistory:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.cfg.History.Enabled))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited value and persists the config. Invalid
// values are reported and leave the config unchanged.
func (a *App) settingsSave() {
	cfg := a.cfg
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.settings.cursor {
	case settingsFieldBaseURL:
		if val == "" {
			a.settings.saveErr = fmt.Errorf("base url cannot be empty")
			return
		}
		cfg.API.BaseURL = val
	case settingsFieldTimeout:
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			a.settings.saveErr = fmt.Errorf("timeout must be a non-negative number of seconds")
			return
		}
		cfg.API.TimeoutSec = n
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldLogLevel:
		if _, err := zapcore.ParseLevel(val); err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.Log.Level = val
	case settingsFieldMonitorAddr:
		cfg.Monitor.Addr = val
	case settingsFieldHistory:
		b, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.saveErr = fmt.Errorf("history must be true or false")
			return
		}
		cfg.History.Enabled = b
	}

	a.settings.saveErr = a.saveConfig(cfg)
	if a.settings.saveErr == nil {
		a.cfg = cfg
	}
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	successStyle := lipgloss.NewStyle().Foreground(t.Success).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	timeout := "none"
	if cfg.API.TimeoutSec > 0 {
		timeout = fmt.Sprintf("%ds", cfg.API.TimeoutSec)
	}

	fields := []struct{ label, value string }{
		{"Base URL", cfg.API.BaseURL},
		{"Timeout", timeout},
		{"Theme", cfg.Appearance.Theme},
		{"Log Level", cfg.Log.Level},
		{"Monitor Address", cfg.Monitor.Addr},
		{"Quota History", strconv.FormatBool(cfg.History.Enabled)},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if pad := components.CardInnerWidth(cw) - used; pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Warning).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(successStyle.Render("Saved. Connection settings apply on next start."))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Space] next theme  [Esc] cancel"))

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Session backend: ") + valueStyle.Render(a.sess.BaseURL()) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("History file:    ") + valueStyle.Render(config.HistoryPath(cfg)))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))
	return b.String()
}
