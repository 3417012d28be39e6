package cmd

import (
	"testing"
	"time"

	"github.com/theirongolddev/ghlc/internal/appointment"
)

func TestBookingFormUsesDuration(t *testing.T) {
	flagApptStart = "2026-03-01 10:00"
	flagApptEnd = ""
	flagApptDuration = 30 * time.Minute
	t.Cleanup(func() {
		flagApptStart, flagApptEnd, flagApptDuration = "", "", appointment.DefaultDuration
	})

	form := bookingForm()
	if form.End != "2026-03-01 10:30" {
		t.Fatalf("End = %q, want 2026-03-01 10:30", form.End)
	}
}

func TestBookingFormKeepsExplicitEnd(t *testing.T) {
	flagApptStart = "2026-03-01 10:00"
	flagApptEnd = "2026-03-01 12:00"
	t.Cleanup(func() { flagApptStart, flagApptEnd = "", "" })

	if form := bookingForm(); form.End != "2026-03-01 12:00" {
		t.Fatalf("End = %q", form.End)
	}
}
