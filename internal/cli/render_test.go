package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/theirongolddev/ghlc/internal/ratelimit"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestRenderTableAlignment(t *testing.T) {
	out := RenderTable(Table{
		Headers:    []string{"Name", "Count"},
		Rows:       [][]string{{"alpha", "1"}, {"b", "1,000"}},
		RightAlign: map[int]bool{1: true},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d, want 6:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[3], "│ alpha │     1 │") {
		t.Errorf("row = %q", lines[3])
	}
	if !strings.Contains(lines[4], "│ b     │ 1,000 │") {
		t.Errorf("row = %q", lines[4])
	}
}

func TestRenderQuotaBar(t *testing.T) {
	bar := RenderQuotaBar(50, 10, ratelimit.ColorAmber)
	if got := strings.Count(bar, "█"); got != 5 {
		t.Errorf("filled = %d, want 5", got)
	}
	if got := strings.Count(RenderQuotaBar(150, 10, ratelimit.ColorGreen), "█"); got != 10 {
		t.Errorf("overfull filled = %d, want 10", got)
	}
	if got := strings.Count(RenderQuotaBar(-5, 10, ratelimit.ColorRed), "░"); got != 10 {
		t.Errorf("negative empty = %d, want 10", got)
	}
}

func TestEncodeYAMLAndJSON(t *testing.T) {
	v := map[string]any{"level": ratelimit.LevelDanger, "remaining": 12}

	var jb bytes.Buffer
	if err := Encode(&jb, FormatJSON, v); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(jb.String(), `"level": "danger"`) {
		t.Errorf("json = %s", jb.String())
	}

	var yb bytes.Buffer
	if err := Encode(&yb, FormatYAML, v); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(yb.String(), "level: danger") || !strings.Contains(yb.String(), "remaining: 12") {
		t.Errorf("yaml = %s", yb.String())
	}

	if err := Encode(&yb, FormatTable, v); err == nil {
		t.Error("Encode(table) should fail")
	}
}
