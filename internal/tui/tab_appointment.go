package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ghlc/internal/api"
	"github.com/theirongolddev/ghlc/internal/appointment"
	"github.com/theirongolddev/ghlc/internal/console"
	"github.com/theirongolddev/ghlc/internal/tui/components"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

// appointmentState holds the booking widget. values is shared by pointer so
// the huh form and every copy of App write to the same input.
type appointmentState struct {
	form   *huh.Form
	values *appointment.Form

	calendarName string

	contacts       []api.Contact
	contactsLoaded bool
	contactsOut    outcome

	out     outcome
	created *api.Appointment
}

func newAppointmentState() appointmentState {
	return appointmentState{values: &appointment.Form{Status: appointment.StatusConfirmed}}
}

type contactsMsg struct {
	resp *api.ContactsResponse
	err  error
}

type appointmentMsg struct {
	resp *api.CreateAppointmentResponse
	err  error
}

func loadContactsCmd(ctx context.Context, sess *console.Session) tea.Cmd {
	return func() tea.Msg {
		resp, err := sess.Contacts(ctx)
		return contactsMsg{resp: resp, err: err}
	}
}

func createAppointmentCmd(ctx context.Context, sess *console.Session, form appointment.Form) tea.Cmd {
	return func() tea.Msg {
		resp, err := sess.CreateAppointment(ctx, form)
		return appointmentMsg{resp: resp, err: err}
	}
}

func (s appointmentState) settle(msg appointmentMsg) appointmentState {
	s.out = s.out.finish(msg.err, "appointment booked")
	s.created = nil
	if msg.err == nil && msg.resp != nil {
		created := msg.resp.Appointment
		s.created = &created
	}
	return s
}

func (s appointmentState) calendarLabel() string {
	if s.calendarName != "" {
		return fmt.Sprintf("%s (%s)", s.calendarName, s.values.CalendarID)
	}
	return s.values.CalendarID
}

func (a App) appointmentKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "n", "enter":
		if a.appt.out.loading() || a.appt.contactsOut.loading() {
			return a, nil, true
		}
		if !a.appt.contactsLoaded {
			a.appt.contactsOut = a.appt.contactsOut.start()
			return a, loadContactsCmd(a.ctx, a.sess), true
		}
		model, cmd := a.openAppointmentForm()
		return model, cmd, true
	}
	return a, nil, false
}

// onContacts records the contact list, or its absence, and opens the form.
// Without a list the contact field falls back to free text.
func (a App) onContacts(msg contactsMsg) (tea.Model, tea.Cmd) {
	a.appt.contactsLoaded = true
	a.appt.contacts = nil
	if msg.err == nil && msg.resp != nil {
		a.appt.contacts = msg.resp.Contacts
	}
	a.appt.contactsOut = a.appt.contactsOut.finish(msg.err, fmt.Sprintf("%d contacts", len(a.appt.contacts)))
	if msg.err != nil {
		a.logger.Debug("contacts unavailable for booking form")
	}
	if a.activeTab != components.TabAppointment {
		return a, nil
	}
	return a.openAppointmentForm()
}

func (a App) openAppointmentForm() (tea.Model, tea.Cmd) {
	v := a.appt.values
	if v.Start == "" {
		v.Start = appointment.FormatTime(time.Now().Truncate(time.Hour).Add(time.Hour))
	}
	if v.Status == "" {
		v.Status = appointment.StatusConfirmed
	}
	a.appt.form = buildAppointmentForm(v, a.cals.calendars, a.appt.contacts).WithWidth(a.formWidth())
	return a, a.appt.form.Init()
}

func buildAppointmentForm(v *appointment.Form, calendars []api.Calendar, contacts []api.Contact) *huh.Form {
	var calendarField, contactField huh.Field

	if len(calendars) > 0 {
		opts := make([]huh.Option[string], 0, len(calendars))
		for _, c := range calendars {
			opts = append(opts, huh.NewOption(c.Name, c.ID))
		}
		calendarField = huh.NewSelect[string]().
			Title("Calendar").
			Options(opts...).
			Value(&v.CalendarID)
	} else {
		calendarField = huh.NewInput().
			Title("Calendar ID").
			Description("Load calendars on the Calendars tab to pick from a list").
			Value(&v.CalendarID)
	}

	if len(contacts) > 0 {
		opts := make([]huh.Option[string], 0, len(contacts))
		for _, c := range contacts {
			opts = append(opts, huh.NewOption(c.DisplayName(), c.ID))
		}
		contactField = huh.NewSelect[string]().
			Title("Contact").
			Options(opts...).
			Value(&v.ContactID)
	} else {
		contactField = huh.NewInput().
			Title("Contact ID").
			Description("Contact list unavailable, enter an ID").
			Value(&v.ContactID)
	}

	statusOpts := make([]huh.Option[string], 0, len(appointment.Statuses))
	for _, s := range appointment.Statuses {
		statusOpts = append(statusOpts, huh.NewOption(s, s))
	}

	return huh.NewForm(
		huh.NewGroup(
			calendarField,
			contactField,
			huh.NewInput().
				Title("Title").
				Value(&v.Title),
			huh.NewInput().
				Title("Start").
				Description("YYYY-MM-DD HH:MM, local time").
				Value(&v.Start),
			huh.NewInput().
				Title("End").
				Description("Leave blank for start + 1h").
				Value(&v.End),
			huh.NewSelect[string]().
				Title("Status").
				Options(statusOpts...).
				Value(&v.Status),
		),
	).WithTheme(huh.ThemeDracula()).WithShowHelp(true)
}

func (a App) updateAppointmentForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		a.appt.form = nil
		return a, nil
	}

	form, cmd := a.appt.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.appt.form = f
	}

	switch a.appt.form.State {
	case huh.StateCompleted:
		a.appt.form = nil
		return a.submitAppointment()
	case huh.StateAborted:
		a.appt.form = nil
		return a, nil
	}

	return a, cmd
}

// submitAppointment validates the collected input. An invalid form settles
// the widget as failed without issuing any request.
func (a App) submitAppointment() (tea.Model, tea.Cmd) {
	if a.appt.out.loading() {
		return a, nil
	}
	a.appt.values.FillEnd()
	if err := a.appt.values.Validate(); err != nil {
		a.appt.out = failed(err)
		a.appt.created = nil
		return a, nil
	}
	a.appt.out = a.appt.out.start()
	return a, createAppointmentCmd(a.ctx, a.sess, *a.appt.values)
}

func (a App) renderAppointmentTab(cw int) string {
	if a.appt.form != nil {
		return components.ContentCard("New Appointment", a.appt.form.View(), cw)
	}

	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	v := a.appt.values
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}

	var body strings.Builder
	if a.appt.contactsOut.loading() {
		body.WriteString(a.statusLine(a.appt.contactsOut, ""))
	} else {
		body.WriteString(a.statusLine(a.appt.out, "Press n to book an appointment"))
	}
	body.WriteString("\n\n")

	rows := []struct{ label, value string }{
		{"Calendar", orDash(a.appt.calendarLabel())},
		{"Contact", orDash(v.ContactID)},
		{"Title", orDash(v.Title)},
		{"Start", orDash(v.Start)},
		{"End", orDash(v.End)},
		{"Status", orDash(v.Status)},
	}
	for _, r := range rows {
		body.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", r.label)) + valueStyle.Render(r.value) + "\n")
	}
	body.WriteString("\n")
	body.WriteString(labelStyle.Render("[n/Enter] new booking  [Esc] cancel form"))

	var b strings.Builder
	b.WriteString(components.ContentCard("Appointment", body.String(), cw))

	if c := a.appt.created; c != nil && a.appt.out.state == stateSuccess {
		var info strings.Builder
		info.WriteString(labelStyle.Render("ID:     ") + valueStyle.Render(orDash(c.ID)) + "\n")
		info.WriteString(labelStyle.Render("Title:  ") + valueStyle.Render(orDash(c.Title)) + "\n")
		info.WriteString(labelStyle.Render("Start:  ") + valueStyle.Render(orDash(c.StartTime)) + "\n")
		info.WriteString(labelStyle.Render("Status: ") + valueStyle.Render(orDash(c.AppointmentStatus)))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Booked", info.String(), cw))
	}
	return b.String()
}
