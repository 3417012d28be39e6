package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ghlc/internal/api"
	"github.com/theirongolddev/ghlc/internal/cli"
	"github.com/theirongolddev/ghlc/internal/console"
	"github.com/theirongolddev/ghlc/internal/tui/components"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

type calendarsState struct {
	out       outcome
	calendars []api.Calendar
	cursor    int
	offset    int
}

type calendarsMsg struct {
	resp *api.CalendarsResponse
	err  error
}

func loadCalendarsCmd(ctx context.Context, sess *console.Session) tea.Cmd {
	return func() tea.Msg {
		resp, err := sess.Calendars(ctx, "")
		return calendarsMsg{resp: resp, err: err}
	}
}

func (c calendarsState) settle(msg calendarsMsg) calendarsState {
	if msg.err != nil {
		// A failed reload keeps nothing from the previous listing.
		c.out = c.out.finish(msg.err, "")
		c.calendars = nil
		c.cursor, c.offset = 0, 0
		return c
	}
	c.calendars = msg.resp.Calendars
	c.cursor, c.offset = 0, 0
	c.out = c.out.finish(nil, fmt.Sprintf("%d calendars", len(c.calendars)))
	return c
}

func (c *calendarsState) move(delta int) {
	if len(c.calendars) == 0 {
		return
	}
	c.cursor = min(max(c.cursor+delta, 0), len(c.calendars)-1)
}

func (c calendarsState) selected() (api.Calendar, bool) {
	if c.cursor < 0 || c.cursor >= len(c.calendars) {
		return api.Calendar{}, false
	}
	return c.calendars[c.cursor], true
}

func (a App) calendarsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "r":
		if a.cals.out.loading() {
			return a, nil, true
		}
		a.cals.out = a.cals.out.start()
		return a, loadCalendarsCmd(a.ctx, a.sess), true
	case "j", "down":
		a.cals.move(1)
		return a, nil, true
	case "k", "up":
		a.cals.move(-1)
		return a, nil, true
	case "enter":
		if cal, ok := a.cals.selected(); ok {
			a.appt.values.CalendarID = cal.ID
			a.appt.calendarName = cal.Name
			a.activeTab = components.TabAppointment
		}
		return a, nil, true
	}
	return a, nil, false
}

func (a App) renderCalendarsTab(cw, h int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	activeStyle := lipgloss.NewStyle().Foreground(t.Success).Background(t.Surface)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var body strings.Builder
	body.WriteString(a.statusLine(a.cals.out, "Press r to load calendars"))
	body.WriteString("\n\n")

	if len(a.cals.calendars) == 0 {
		if a.cals.out.state == stateSuccess {
			body.WriteString(dimStyle.Render("No calendars found"))
			body.WriteString("\n")
		}
	} else {
		nameW := max(innerW-34, 12)
		body.WriteString(headerStyle.Render(fmt.Sprintf("  %-*s %-24s %s", nameW, "Name", "ID", "Status")))
		body.WriteString("\n")

		// Rows that fit inside the card, leaving room for header and hints.
		visible := max(h-9, 3)
		offset := a.cals.offset
		if a.cals.cursor < offset {
			offset = a.cals.cursor
		}
		if a.cals.cursor >= offset+visible {
			offset = a.cals.cursor - visible + 1
		}
		end := min(offset+visible, len(a.cals.calendars))

		for i := offset; i < end; i++ {
			cal := a.cals.calendars[i]
			status := cal.Status
			if status == "" {
				status = "-"
			}
			line := fmt.Sprintf("%-*s %-24s ", nameW, cli.Truncate(cal.Name, nameW), cli.Truncate(cal.ID, 24))
			if i == a.cals.cursor {
				body.WriteString(selStyle.Render("▸ " + line + status))
			} else {
				statusStyle := mutedStyle
				if cal.Active() {
					statusStyle = activeStyle
				}
				body.WriteString(rowStyle.Render("  "+line) + statusStyle.Render(status))
			}
			body.WriteString("\n")
		}
	}

	if a.appt.values.CalendarID != "" {
		body.WriteString("\n")
		body.WriteString(mutedStyle.Render("Booking calendar: ") + rowStyle.Render(a.appt.calendarLabel()))
		body.WriteString("\n")
	}
	body.WriteString("\n")
	body.WriteString(mutedStyle.Render("[r] reload  [j/k] move  [Enter] use for booking"))

	return components.ContentCard("Calendars", body.String(), cw)
}
