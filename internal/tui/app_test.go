package tui

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/ghlc/internal/api"
	"github.com/theirongolddev/ghlc/internal/appointment"
	"github.com/theirongolddev/ghlc/internal/config"
	"github.com/theirongolddev/ghlc/internal/console"
	"github.com/theirongolddev/ghlc/internal/ratelimit"
	"github.com/theirongolddev/ghlc/internal/tui/components"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

func newTestApp(t *testing.T, body string) (App, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	client, err := api.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sess := console.New(client, ratelimit.NewStore())
	a := NewApp(context.Background(), sess, Options{Config: config.DefaultConfig()})
	t.Cleanup(a.unsubscribe)
	a.width, a.height = 120, 40
	return a, &hits
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPingRoundTrip(t *testing.T) {
	a, hits := newTestApp(t, `{"success":true,"message":"pong","rate_limit":{"remaining":80,"limit":100}}`)

	model, cmd := a.Update(keyMsg("p"))
	a = model.(App)
	if !a.conn.out.loading() {
		t.Fatalf("state = %s, want loading", a.conn.out.state)
	}
	if cmd == nil {
		t.Fatal("expected a request command")
	}

	model, _ = a.Update(cmd())
	a = model.(App)
	if a.conn.out.state != stateSuccess {
		t.Fatalf("state = %s (%s), want success", a.conn.out.state, a.conn.out.message)
	}
	if !strings.Contains(a.conn.body, `"pong"`) {
		t.Errorf("body = %q", a.conn.body)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("hits = %d, want 1", *hits)
	}
	if got := a.sess.Store().Level(); got != ratelimit.LevelGood {
		t.Errorf("level = %s, want good", got)
	}
}

func TestKeysIgnoredWhileLoading(t *testing.T) {
	a, hits := newTestApp(t, `{}`)
	a.conn.out = a.conn.out.start()

	_, cmd := a.Update(keyMsg("p"))
	if cmd != nil {
		t.Fatal("second ping issued while the first is in flight")
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Errorf("hits = %d, want 0", *hits)
	}

	a.activeTab = components.TabCalendars
	a.cals.out = a.cals.out.start()
	if _, cmd := a.Update(keyMsg("r")); cmd != nil {
		t.Fatal("calendar reload issued while loading")
	}
}

func TestFailureReplacesPreviousOutcome(t *testing.T) {
	a, _ := newTestApp(t, `{}`)
	a.conn = a.conn.settle(connResultMsg{kind: probePing, raw: []byte(`{"ok":true}`)})
	if a.conn.body == "" {
		t.Fatal("expected body after success")
	}

	a.conn = a.conn.settle(connResultMsg{kind: probePing, err: &api.HTTPError{StatusCode: 502, Message: "bad gateway"}})
	if a.conn.out.state != stateFailure {
		t.Fatalf("state = %s, want failure", a.conn.out.state)
	}
	if a.conn.body != "" {
		t.Errorf("stale body kept: %q", a.conn.body)
	}
}

func TestInvalidAppointmentIssuesNoRequest(t *testing.T) {
	a, hits := newTestApp(t, `{"success":true}`)
	a.activeTab = components.TabAppointment
	*a.appt.values = appointmentFormForTest("2026-03-01 10:00", "2026-03-01 09:00")

	model, cmd := a.submitAppointment()
	a = model.(App)
	if cmd != nil {
		t.Fatal("invalid form produced a request command")
	}
	if a.appt.out.state != stateFailure {
		t.Fatalf("state = %s, want failure", a.appt.out.state)
	}
	if !strings.Contains(a.appt.out.message, "end time must be after start time") {
		t.Errorf("message = %q", a.appt.out.message)
	}
	if atomic.LoadInt32(hits) != 0 {
		t.Errorf("hits = %d, want 0", *hits)
	}
}

func TestBlankEndDefaultsAndBooks(t *testing.T) {
	a, hits := newTestApp(t, `{"success":true,"appointment":{"id":"apt-1","title":"Checkup"}}`)
	*a.appt.values = appointmentFormForTest("2026-03-01 10:00", "")

	model, cmd := a.submitAppointment()
	a = model.(App)
	if cmd == nil {
		t.Fatal("expected a request command")
	}
	if a.appt.values.End == "" {
		t.Error("end was not filled from start")
	}

	model, _ = a.Update(cmd())
	a = model.(App)
	if a.appt.out.state != stateSuccess {
		t.Fatalf("state = %s (%s), want success", a.appt.out.state, a.appt.out.message)
	}
	if a.appt.created == nil || a.appt.created.ID != "apt-1" {
		t.Errorf("created = %+v", a.appt.created)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("hits = %d, want 1", *hits)
	}
}

func TestContactsFailureOpensFreeTextForm(t *testing.T) {
	a, _ := newTestApp(t, `{}`)
	a.activeTab = components.TabAppointment

	model, _ := a.Update(contactsMsg{err: errors.New("down")})
	a = model.(App)
	if !a.appt.contactsLoaded {
		t.Error("contacts not marked loaded")
	}
	if a.appt.form == nil {
		t.Fatal("form not opened")
	}
	if a.appt.values.Start == "" {
		t.Error("start not prefilled")
	}

	model, _ = a.Update(keyMsg("esc"))
	a = model.(App)
	if a.appt.form != nil {
		t.Error("esc did not close the form")
	}
}

func TestCalendarSelectionFeedsForm(t *testing.T) {
	a, _ := newTestApp(t, `{}`)
	a.activeTab = components.TabCalendars
	a.cals = a.cals.settle(calendarsMsg{resp: &api.CalendarsResponse{Calendars: []api.Calendar{
		{ID: "c1", Name: "Dr. A"},
		{ID: "c2", Name: "Dr. B"},
	}}})

	model, _ := a.Update(keyMsg("j"))
	a = model.(App)
	model, _ = a.Update(keyMsg("enter"))
	a = model.(App)

	if a.appt.values.CalendarID != "c2" {
		t.Errorf("CalendarID = %q, want c2", a.appt.values.CalendarID)
	}
	if a.activeTab != components.TabAppointment {
		t.Errorf("activeTab = %d, want appointment", a.activeTab)
	}
}

func TestQuotaSubscriptionUpdatesStatus(t *testing.T) {
	a, _ := newTestApp(t, `{}`)
	a.sess.Store().Set(ratelimit.Snapshot{Remaining: 5, Limit: 100})

	// A stale delivery still renders the store's latest snapshot.
	model, cmd := a.Update(quotaMsg{snap: ratelimit.Snapshot{Remaining: 90, Limit: 100}, ok: true})
	a = model.(App)
	if a.quota.Level() != ratelimit.LevelCritical {
		t.Errorf("level = %s, want critical", a.quota.Level())
	}
	if cmd == nil {
		t.Error("subscription not re-armed")
	}
	if len(a.quotaTab.series) != 1 || a.quotaTab.series[0] != 5 {
		t.Errorf("series = %v", a.quotaTab.series)
	}
	if !strings.Contains(a.View(), "Quota") {
		t.Error("view missing tab bar")
	}
}

func TestQuotaSeriesIsBounded(t *testing.T) {
	var q quotaState
	q.seed([]float64{1, 2, 3})
	for i := 0; i < sparklineLen+10; i++ {
		q.push(ratelimit.Snapshot{Remaining: 50, Limit: 100})
	}
	if len(q.series) != sparklineLen {
		t.Fatalf("len = %d, want %d", len(q.series), sparklineLen)
	}
	q.push(ratelimit.Snapshot{})
	if len(q.series) != sparklineLen {
		t.Error("unknown snapshot was recorded")
	}
}

func TestSettingsRejectsUnknownTheme(t *testing.T) {
	a, _ := newTestApp(t, `{}`)
	var saved int
	a.saveConfig = func(config.Config) error { saved++; return nil }
	a.settings.cursor = settingsFieldTheme

	model, _ := a.settingsStartEdit()
	a = model.(App)
	a.settings.input.SetValue("neon-pink")
	a.settingsSave()
	if a.settings.saveErr == nil || saved != 0 {
		t.Fatalf("saveErr = %v saved = %d", a.settings.saveErr, saved)
	}

	a.settings.cursor = settingsFieldTimeout
	a.settings.input.SetValue("15")
	a.settingsSave()
	if a.settings.saveErr != nil || saved != 1 || a.cfg.API.TimeoutSec != 15 {
		t.Fatalf("saveErr = %v saved = %d timeout = %d", a.settings.saveErr, saved, a.cfg.API.TimeoutSec)
	}
}

func TestQuitCancelsRequests(t *testing.T) {
	a, _ := newTestApp(t, `{}`)
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if a.ctx.Err() == nil {
		t.Error("app context still live after quit")
	}
}

func appointmentFormForTest(start, end string) appointment.Form {
	return appointment.Form{
		CalendarID: "cal-1",
		ContactID:  "ct-1",
		Title:      "Checkup",
		Start:      start,
		End:        end,
		Status:     "confirmed",
	}
}

func TestSpaceCyclesTheme(t *testing.T) {
	a, _ := newTestApp(t, `{}`)
	a.saveConfig = func(config.Config) error { return nil }
	a.activeTab = components.TabSettings
	a.settings.cursor = settingsFieldTheme
	before := a.cfg.Appearance.Theme

	model, _ := a.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	a = model.(App)
	if a.cfg.Appearance.Theme == before {
		t.Fatalf("theme still %q", before)
	}
	if !a.settings.saved {
		t.Errorf("saveErr = %v", a.settings.saveErr)
	}
	theme.SetActive(before)
}

func TestQuotaBurstRendersLatestSnapshot(t *testing.T) {
	a, _ := newTestApp(t, `{}`)
	st := a.sess.Store()
	for i := 1; i <= 20; i++ {
		st.Set(ratelimit.Snapshot{Remaining: int64(i), Limit: 100})
	}

	// Drain whatever the subscription buffered, as the program loop would.
	for {
		select {
		case snap := <-a.quotaCh:
			model, _ := a.Update(quotaMsg{snap: snap, ok: true})
			a = model.(App)
			continue
		default:
		}
		break
	}

	if got, want := a.quota.Remaining, st.Current().Remaining; got != want {
		t.Fatalf("rendered Remaining = %d, store has %d", got, want)
	}
}

func TestQuotaTabFetchesOnFirstVisit(t *testing.T) {
	a, hits := newTestApp(t, `{"success":true,"rate_limit":{"remaining":40,"limit":100}}`)

	model, cmd := a.Update(keyMsg("u"))
	a = model.(App)
	if a.activeTab != components.TabQuota {
		t.Fatalf("activeTab = %d, want quota", a.activeTab)
	}
	if cmd == nil || !a.quotaTab.out.loading() {
		t.Fatal("first visit did not start a quota fetch")
	}
	model, _ = a.Update(cmd())
	a = model.(App)
	if a.quotaTab.out.state != stateSuccess {
		t.Fatalf("state = %s (%s)", a.quotaTab.out.state, a.quotaTab.out.message)
	}
	if got := a.sess.Store().Level(); got != ratelimit.LevelWarning {
		t.Errorf("level = %s, want warning", got)
	}

	// Leaving and returning does not fetch again.
	model, _ = a.Update(keyMsg("o"))
	a = model.(App)
	if _, cmd := a.Update(keyMsg("u")); cmd != nil {
		t.Error("second visit fetched again")
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Errorf("hits = %d, want 1", *hits)
	}
}
