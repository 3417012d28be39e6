package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ghlc/internal/api"
	"github.com/theirongolddev/ghlc/internal/cli"
)

var (
	flagContactFirst    string
	flagContactLast     string
	flagContactEmail    string
	flagContactPhone    string
	flagContactLocation string
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "List contacts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			resp, err := a.sess.Contacts(ctx)
			if err != nil {
				return err
			}
			return a.emit(resp.Contacts, func() {
				rows := make([][]string, 0, len(resp.Contacts))
				for _, c := range resp.Contacts {
					rows = append(rows, []string{c.DisplayName(), c.ID, c.Email, c.Phone})
				}
				fmt.Println(cli.RenderTable(cli.Table{
					Title:   fmt.Sprintf("Contacts (%d)", len(resp.Contacts)),
					Headers: []string{"Name", "ID", "Email", "Phone"},
					Rows:    rows,
				}))
				a.printQuotaFooter()
			})
		})
	},
}

var contactsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a contact",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			resp, err := a.sess.CreateContact(ctx, api.CreateContactRequest{
				FirstName:  flagContactFirst,
				LastName:   flagContactLast,
				Email:      flagContactEmail,
				Phone:      flagContactPhone,
				LocationID: flagContactLocation,
			})
			if err != nil {
				return err
			}
			return a.printRaw(resp.Contact, "contact created")
		})
	},
}

func init() {
	f := contactsCreateCmd.Flags()
	f.StringVar(&flagContactFirst, "first-name", "", "First name (required)")
	f.StringVar(&flagContactLast, "last-name", "", "Last name")
	f.StringVar(&flagContactEmail, "email", "", "Email address")
	f.StringVar(&flagContactPhone, "phone", "", "Phone number")
	f.StringVar(&flagContactLocation, "location", "", "Location ID")

	contactsCmd.AddCommand(contactsCreateCmd)
	rootCmd.AddCommand(contactsCmd)
}
