// Package appointment validates the booking form and builds the create
// request from it.
package appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/ghlc/internal/api"
)

// DefaultDuration is added to the start time when no end time is given.
const DefaultDuration = time.Hour

// Statuses accepted by the backend.
const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

// Statuses lists the accepted statuses in display order.
var Statuses = []string{StatusConfirmed, StatusPending, StatusCancelled}

// Field names used in validation errors.
const (
	FieldCalendar = "calendar"
	FieldContact  = "contact"
	FieldStart    = "start"
	FieldEnd      = "end"
	FieldTitle    = "title"
	FieldStatus   = "status"
)

// layouts are tried in order. Zone-less layouts parse in time.Local.
var layouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// Form is the raw user input for a new appointment.
type Form struct {
	CalendarID string
	ContactID  string
	Start      string
	End        string
	Title      string
	Status     string
}

// ParseTime parses s in any accepted layout.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q (use YYYY-MM-DD HH:MM)", s)
}

// FormatTime renders t in the primary input layout.
func FormatTime(t time.Time) string {
	return t.In(time.Local).Format(layouts[0])
}

// DefaultEnd is the end time filled in when only a start is known.
func DefaultEnd(start time.Time) time.Time {
	return start.Add(DefaultDuration)
}

// Validate checks field presence, time parsing and end-after-start
// ordering. It returns nil or a *api.ValidationError.
func (f Form) Validate() error {
	ve := &api.ValidationError{}

	if strings.TrimSpace(f.CalendarID) == "" {
		ve.Add(FieldCalendar, "calendar is required")
	}
	if strings.TrimSpace(f.ContactID) == "" {
		ve.Add(FieldContact, "contact is required")
	}
	if strings.TrimSpace(f.Title) == "" {
		ve.Add(FieldTitle, "title is required")
	}

	start, startOK := f.parseField(ve, FieldStart, f.Start, "start time")
	end, endOK := f.parseField(ve, FieldEnd, f.End, "end time")
	if startOK && endOK && !end.After(start) {
		ve.Add(FieldEnd, "end time must be after start time")
	}

	if s := strings.TrimSpace(f.Status); s != "" && !validStatus(s) {
		ve.Add(FieldStatus, fmt.Sprintf("status must be one of %s", strings.Join(Statuses, ", ")))
	}

	if ve.Empty() {
		return nil
	}
	return ve
}

func (Form) parseField(ve *api.ValidationError, field, value, label string) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, label+" is required")
		return time.Time{}, false
	}
	t, err := ParseTime(value)
	if err != nil {
		ve.Add(field, label+": "+err.Error())
		return time.Time{}, false
	}
	return t, true
}

// Request validates the form and converts it into the create body with
// ISO-8601 UTC times.
func (f Form) Request() (api.CreateAppointmentRequest, error) {
	if err := f.Validate(); err != nil {
		return api.CreateAppointmentRequest{}, err
	}
	start, _ := ParseTime(f.Start)
	end, _ := ParseTime(f.End)

	status := strings.TrimSpace(f.Status)
	if status == "" {
		status = StatusConfirmed
	}
	return api.CreateAppointmentRequest{
		CalendarID:        strings.TrimSpace(f.CalendarID),
		ContactID:         strings.TrimSpace(f.ContactID),
		StartTime:         start.UTC().Format(time.RFC3339),
		EndTime:           end.UTC().Format(time.RFC3339),
		Title:             strings.TrimSpace(f.Title),
		AppointmentStatus: status,
	}, nil
}

// FillEnd sets End to start+DefaultDuration when End is blank and Start
// parses. It reports whether End was filled.
func (f *Form) FillEnd() bool {
	if strings.TrimSpace(f.End) != "" {
		return false
	}
	start, err := ParseTime(f.Start)
	if err != nil {
		return false
	}
	f.End = FormatTime(DefaultEnd(start))
	return true
}

func validStatus(s string) bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}
