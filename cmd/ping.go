package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ghlc/internal/cli"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			start := time.Now()
			raw, err := a.sess.Ping(ctx)
			if err != nil {
				return err
			}
			return a.printRaw(raw, fmt.Sprintf("%s reachable (%dms)", a.sess.BaseURL(), time.Since(start).Milliseconds()))
		})
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show the backend's debug information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			raw, err := a.sess.Debug(ctx)
			if err != nil {
				return err
			}
			return a.printRaw(raw, "debug info")
		})
	},
}

func init() {
	rootCmd.AddCommand(pingCmd, debugCmd)
}

// printRaw prints an opaque response body. Table mode indents the JSON under
// a status line; structured modes re-encode it.
func (a *app) printRaw(raw json.RawMessage, headline string) error {
	if a.format.Structured() {
		var v any
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &v); err != nil {
				return err
			}
		}
		return cli.Encode(os.Stdout, a.format, v)
	}

	fmt.Println(cli.RenderOK(headline))
	var buf bytes.Buffer
	if len(raw) > 0 && json.Indent(&buf, raw, "  ", "  ") == nil {
		fmt.Printf("  %s\n", buf.String())
	}
	a.printQuotaFooter()
	return nil
}
