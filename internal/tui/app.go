// Package tui provides the interactive Bubble Tea console for ghlc.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/theirongolddev/ghlc/internal/config"
	"github.com/theirongolddev/ghlc/internal/console"
	"github.com/theirongolddev/ghlc/internal/ratelimit"
	"github.com/theirongolddev/ghlc/internal/store"
	"github.com/theirongolddev/ghlc/internal/tui/components"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

// Options configures the console.
type Options struct {
	Config  config.Config
	History *store.History // optional; feeds the quota sparkline
	Logger  *zap.Logger
}

// App is the root Bubble Tea model.
type App struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sess    *console.Session
	history *store.History
	logger  *zap.Logger

	cfg        config.Config
	saveConfig func(config.Config) error

	// Live quota, fed by a store subscription
	quotaCh     <-chan ratelimit.Snapshot
	unsubscribe func()
	quota       ratelimit.Snapshot

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	spinner   spinner.Model

	// Per-tab state
	conn     connectionState
	cals     calendarsState
	appt     appointmentState
	quotaTab quotaState
	settings settingsState
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 140
	minContentHeight = 5
	sparklineLen     = 60
)

// NewApp creates the console for sess. Requests made by the console are
// cancelled when it quits.
func NewApp(parent context.Context, sess *console.Session, opts Options) App {
	ctx, cancel := context.WithCancel(parent)
	ch, unsubscribe := sess.Store().Subscribe()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		ctx:         ctx,
		cancel:      cancel,
		sess:        sess,
		history:     opts.History,
		logger:      logger,
		cfg:         opts.Config,
		saveConfig:  config.Save,
		quotaCh:     ch,
		unsubscribe: unsubscribe,
		quota:       sess.Store().Current(),
		spinner:     sp,
		appt:        newAppointmentState(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		waitForQuota(a.quotaCh),
	}
	if a.history != nil {
		cmds = append(cmds, loadHistoryCmd(a.ctx, a.history))
	}
	return tea.Batch(cmds...)
}

type quotaMsg struct {
	snap ratelimit.Snapshot
	ok   bool
}

// waitForQuota blocks until the store publishes the next snapshot.
func waitForQuota(ch <-chan ratelimit.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		return quotaMsg{snap: snap, ok: ok}
	}
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.cancel()
	a.unsubscribe()
	return a, tea.Quit
}

// busy reports whether any widget has a request in flight.
func (a App) busy() bool {
	return a.conn.out.loading() || a.cals.out.loading() ||
		a.appt.out.loading() || a.appt.contactsOut.loading() ||
		a.quotaTab.out.loading()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.appt.form != nil {
			a.appt.form = a.appt.form.WithWidth(a.formWidth())
		}
		return a, nil

	case tea.MouseMsg:
		if a.showHelp || a.appt.form != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return a.moveCursor(-1), nil
		case tea.MouseButtonWheelDown:
			return a.moveCursor(1), nil
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					return a.switchTab(tab)
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		// Global: quit
		if key == "ctrl+c" {
			return a.quit()
		}

		// The booking form owns the keyboard while open.
		if a.activeTab == components.TabAppointment && a.appt.form != nil {
			return a.updateAppointmentForm(msg)
		}

		if a.activeTab == components.TabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if model, cmd, handled := a.updateTabKey(key); handled {
			return model, cmd
		}

		switch key {
		case "q":
			return a.quit()
		case "left", "shift+tab":
			return a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
		case "right", "tab":
			return a.switchTab((a.activeTab + 1) % len(components.Tabs))
		default:
			if len(key) == 1 {
				if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
					return a.switchTab(idx)
				}
			}
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case quotaMsg:
		if !msg.ok {
			return a, nil
		}
		// The store is the source of truth; the message only wakes us.
		a.quota = a.sess.Store().Current()
		a.quotaTab.push(a.quota)
		return a, waitForQuota(a.quotaCh)

	case historyMsg:
		if msg.err != nil {
			a.logger.Warn("loading quota history", zap.Error(msg.err))
			return a, nil
		}
		a.quotaTab.seed(msg.values)
		return a, nil

	case connResultMsg:
		a.conn = a.conn.settle(msg)
		return a, nil

	case calendarsMsg:
		a.cals = a.cals.settle(msg)
		return a, nil

	case contactsMsg:
		return a.onContacts(msg)

	case appointmentMsg:
		a.appt = a.appt.settle(msg)
		return a, nil

	case quotaProbeMsg:
		a.quotaTab.out = a.quotaTab.out.finish(msg.err, "quota refreshed")
		return a, nil
	}

	// Forward unhandled messages to the booking form (cursor blinks, etc.)
	if a.appt.form != nil {
		return a.updateAppointmentForm(msg)
	}
	return a, nil
}

// switchTab activates tab idx. The quota tab fetches the quota the first
// time it is shown.
func (a App) switchTab(idx int) (tea.Model, tea.Cmd) {
	a.activeTab = idx
	if idx == components.TabQuota && !a.quotaTab.fetched && !a.quotaTab.out.loading() {
		a.quotaTab.fetched = true
		a.quotaTab.out = a.quotaTab.out.start()
		return a, probeQuotaCmd(a.ctx, a.sess)
	}
	return a, nil
}

// updateTabKey dispatches per-tab bindings. handled is false when the key
// should fall through to global navigation.
func (a App) updateTabKey(key string) (tea.Model, tea.Cmd, bool) {
	switch a.activeTab {
	case components.TabConnection:
		return a.connectionKey(key)
	case components.TabCalendars:
		return a.calendarsKey(key)
	case components.TabAppointment:
		return a.appointmentKey(key)
	case components.TabQuota:
		return a.quotaKey(key)
	case components.TabSettings:
		return a.settingsKey(key)
	}
	return a, nil, false
}

func (a App) moveCursor(delta int) App {
	switch a.activeTab {
	case components.TabCalendars:
		a.cals.move(delta)
	case components.TabSettings:
		a.settings.move(delta)
	}
	return a
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) formWidth() int {
	return max(components.CardInnerWidth(a.contentWidth()), 40)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  ghlc needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Code).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		name     string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o c a u x", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Move selection"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"p / d", "Ping / Debug (Connection)"},
			{"r", "Reload list or quota"},
			{"Enter", "Select / Edit / Book"},
			{"n", "New appointment"},
			{"Esc", "Cancel form or edit"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for _, sec := range sections {
		b.WriteString(sectionStyle.Render(sec.name))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.sess.BaseURL(), a.quota, a.busy())

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case components.TabConnection:
		content = a.renderConnectionTab(cw)
	case components.TabCalendars:
		content = a.renderCalendarsTab(cw, contentH)
	case components.TabAppointment:
		content = a.renderAppointmentTab(cw)
	case components.TabQuota:
		content = a.renderQuotaTab(cw)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Helpers ────────────────────────────────────────────────────

// statusLine renders an outcome as one line: spinner while loading, then a
// coloured tick or cross with the message.
func (a App) statusLine(o outcome, idleHint string) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	switch o.state {
	case stateLoading:
		return a.spinner.View() + muted.Render(" working…")
	case stateSuccess:
		line := lipgloss.NewStyle().Foreground(t.Success).Background(t.Surface).Render("✓ " + o.message)
		if o.elapsed > 0 {
			line += muted.Render(fmt.Sprintf("  (%dms)", o.elapsed.Milliseconds()))
		}
		return line
	case stateFailure:
		return lipgloss.NewStyle().Foreground(t.Failure).Background(t.Surface).Render("✗ " + o.message)
	default:
		return muted.Render(idleHint)
	}
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
