package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ghlc/internal/cli"
)

var flagLocation string

var calendarsCmd = &cobra.Command{
	Use:   "calendars",
	Short: "List calendars",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			resp, err := a.sess.Calendars(ctx, flagLocation)
			if err != nil {
				return err
			}
			return a.emit(resp.Calendars, func() {
				rows := make([][]string, 0, len(resp.Calendars))
				for _, c := range resp.Calendars {
					status := c.Status
					if status == "" {
						status = "-"
					}
					rows = append(rows, []string{c.Name, c.ID, status})
				}
				title := fmt.Sprintf("Calendars (%d)", len(resp.Calendars))
				if resp.LocationID != "" {
					title += "  location " + resp.LocationID
				}
				fmt.Println(cli.RenderTable(cli.Table{
					Title:   title,
					Headers: []string{"Name", "ID", "Status"},
					Rows:    rows,
				}))
				a.printQuotaFooter()
			})
		})
	},
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List locations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			resp, err := a.sess.Locations(ctx)
			if err != nil {
				return err
			}
			return a.emit(resp.Locations, func() {
				rows := make([][]string, 0, len(resp.Locations))
				for _, l := range resp.Locations {
					rows = append(rows, []string{l.Name, l.ID, l.Address})
				}
				fmt.Println(cli.RenderTable(cli.Table{
					Title:   fmt.Sprintf("Locations (%d)", len(resp.Locations)),
					Headers: []string{"Name", "ID", "Address"},
					Rows:    rows,
				}))
				a.printQuotaFooter()
			})
		})
	},
}

func init() {
	calendarsCmd.Flags().StringVar(&flagLocation, "location", "", "Location ID (backend default when empty)")
	rootCmd.AddCommand(calendarsCmd, locationsCmd)
}
