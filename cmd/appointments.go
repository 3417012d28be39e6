package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ghlc/internal/appointment"
	"github.com/theirongolddev/ghlc/internal/cli"
)

var (
	flagApptCalendar string
	flagApptContact  string
	flagApptStart    string
	flagApptEnd      string
	flagApptDuration time.Duration
	flagApptTitle    string
	flagApptStatus   string
)

var appointmentsCmd = &cobra.Command{
	Use:     "appointments",
	Aliases: []string{"appts"},
	Short:   "List appointments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			resp, err := a.sess.Appointments(ctx)
			if err != nil {
				return err
			}
			return a.emit(resp.Appointments, func() {
				rows := make([][]string, 0, len(resp.Appointments))
				for _, ap := range resp.Appointments {
					rows = append(rows, []string{
						cli.FormatISOTime(ap.StartTime),
						cli.FormatISOTime(ap.EndTime),
						ap.Title,
						ap.AppointmentStatus,
						ap.ID,
					})
				}
				fmt.Println(cli.RenderTable(cli.Table{
					Title:   fmt.Sprintf("Appointments (%d)", len(resp.Appointments)),
					Headers: []string{"Start", "End", "Title", "Status", "ID"},
					Rows:    rows,
				}))
				a.printQuotaFooter()
			})
		})
	},
}

var appointmentsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Book an appointment",
	Long: "Book an appointment. Times accept \"YYYY-MM-DD HH:MM\" in local time or RFC 3339.\n" +
		"Without --end the appointment lasts --duration (default 1h).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		form := bookingForm()
		return withApp(cmd, func(ctx context.Context, a *app) error {
			resp, err := a.sess.CreateAppointment(ctx, form)
			if err != nil {
				return err
			}
			ap := resp.Appointment
			return a.emit(ap, func() {
				fmt.Println(cli.RenderOK("appointment booked"))
				fmt.Println(cli.RenderKV("ID", ap.ID))
				fmt.Println(cli.RenderKV("Title", ap.Title))
				fmt.Println(cli.RenderKV("Start", form.Start))
				fmt.Println(cli.RenderKV("End", form.End))
				fmt.Println(cli.RenderKV("Status", form.Status))
				a.printQuotaFooter()
			})
		})
	},
}

// bookingForm collects the create flags, deriving the end time from
// --duration when --end is absent.
func bookingForm() appointment.Form {
	form := appointment.Form{
		CalendarID: flagApptCalendar,
		ContactID:  flagApptContact,
		Start:      flagApptStart,
		End:        flagApptEnd,
		Title:      flagApptTitle,
		Status:     flagApptStatus,
	}
	if form.End == "" && flagApptDuration > 0 {
		if start, err := appointment.ParseTime(form.Start); err == nil {
			form.End = appointment.FormatTime(start.Add(flagApptDuration))
		}
	}
	form.FillEnd()
	return form
}

func init() {
	f := appointmentsCreateCmd.Flags()
	f.StringVar(&flagApptCalendar, "calendar", "", "Calendar ID")
	f.StringVar(&flagApptContact, "contact", "", "Contact ID")
	f.StringVar(&flagApptStart, "start", "", "Start time")
	f.StringVar(&flagApptEnd, "end", "", "End time")
	f.DurationVar(&flagApptDuration, "duration", appointment.DefaultDuration, "Length when --end is not given")
	f.StringVar(&flagApptTitle, "title", "", "Title")
	f.StringVar(&flagApptStatus, "status", appointment.StatusConfirmed, "confirmed, pending or cancelled")

	appointmentsCmd.AddCommand(appointmentsCreateCmd)
	rootCmd.AddCommand(appointmentsCmd)
}
