package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/ghlc/internal/console"
	"github.com/theirongolddev/ghlc/internal/tui/components"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

type probeKind string

const (
	probePing  probeKind = "ping"
	probeDebug probeKind = "debug"
)

type connectionState struct {
	out  outcome
	kind probeKind
	body string // indented response of the last successful probe
}

type connResultMsg struct {
	kind probeKind
	raw  json.RawMessage
	err  error
}

func probeCmd(ctx context.Context, sess *console.Session, kind probeKind) tea.Cmd {
	return func() tea.Msg {
		var (
			raw json.RawMessage
			err error
		)
		if kind == probeDebug {
			raw, err = sess.Debug(ctx)
		} else {
			raw, err = sess.Ping(ctx)
		}
		return connResultMsg{kind: kind, raw: raw, err: err}
	}
}

func (c connectionState) settle(msg connResultMsg) connectionState {
	okMsg := "backend reachable"
	if msg.kind == probeDebug {
		okMsg = "debug info received"
	}
	c.out = c.out.finish(msg.err, okMsg)
	c.kind = msg.kind
	c.body = ""
	if msg.err == nil {
		c.body = prettyJSON(msg.raw)
	}
	return c
}

func (a App) connectionKey(key string) (tea.Model, tea.Cmd, bool) {
	var kind probeKind
	switch key {
	case "p", "enter":
		kind = probePing
	case "d":
		kind = probeDebug
	default:
		return a, nil, false
	}
	if a.conn.out.loading() {
		return a, nil, true
	}
	a.conn.out = a.conn.out.start()
	return a, probeCmd(a.ctx, a.sess, kind), true
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func (a App) renderConnectionTab(cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	codeStyle := lipgloss.NewStyle().Foreground(t.Code).Background(t.Surface)

	var body strings.Builder
	body.WriteString(labelStyle.Render("Backend:  ") + valueStyle.Render(a.sess.BaseURL()) + "\n")
	body.WriteString(labelStyle.Render("Last:     ") + valueStyle.Render(string(a.conn.kind)) + "\n\n")
	body.WriteString(a.statusLine(a.conn.out, "Press p to ping the backend"))
	body.WriteString("\n\n")
	body.WriteString(labelStyle.Render("[p/Enter] ping  [d] debug"))

	var b strings.Builder
	b.WriteString(components.ContentCard("Connection", body.String(), cw))
	if a.conn.body != "" {
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Response", codeStyle.Render(a.conn.body), cw))
	}
	return b.String()
}
