package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ghlc/internal/cli"
	"github.com/theirongolddev/ghlc/internal/ratelimit"
)

var quotaCmd = &cobra.Command{
	Use:     "quota",
	Aliases: []string{"rate-limit"},
	Short:   "Show the backend's API quota",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			snap, err := a.sess.RateLimit(ctx)
			if err != nil {
				return err
			}
			report := quotaReport{
				Level:    snap.Level(),
				Message:  snap.Level().Message(snap),
				Color:    snap.Color(),
				Snapshot: snap,
			}
			return a.emit(report, func() { printQuota(snap) })
		})
	},
}

type quotaReport struct {
	Level    ratelimit.Level    `json:"level" yaml:"level"`
	Message  string             `json:"message" yaml:"message"`
	Color    ratelimit.Color    `json:"color" yaml:"color"`
	Snapshot ratelimit.Snapshot `json:"quota" yaml:"quota"`
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

func printQuota(snap ratelimit.Snapshot) {
	level := snap.Level()

	// Plain output for pipes: no bars, no colour.
	if !cli.IsTerminal(os.Stdout) {
		fmt.Printf("level=%s remaining=%d limit=%d used=%d daily_remaining=%d daily_limit=%d\n",
			level, snap.Remaining, snap.Limit, snap.Used, snap.DailyRemaining, snap.DailyLimit)
		return
	}

	barW := min(max(cli.TerminalWidth(os.Stdout, 80)-40, 10), 40)

	fmt.Println()
	fmt.Printf("  %s  %s\n\n", cli.RenderLevel(level), level.Message(snap))
	if snap.Known() {
		fmt.Printf("  %-8s %s %s  %s\n", "Window",
			cli.RenderQuotaBar(snap.RemainingPct(), barW, level.Color()),
			cli.FormatPercent(snap.RemainingPct()),
			cli.FormatRatio(snap.Remaining, snap.Limit))
	}
	if snap.DailyLimit > 0 {
		daily := ratelimit.LevelFor(snap.DailyRemaining, snap.DailyLimit)
		fmt.Printf("  %-8s %s %s  %s used\n", "Daily",
			cli.RenderQuotaBar(snap.DailyRemainingPct(), barW, daily.Color()),
			cli.FormatPercent(snap.DailyRemainingPct()),
			cli.FormatRatio(snap.DailyUsed(), snap.DailyLimit))
	}
	fmt.Println()
	if !snap.ResetAt.IsZero() {
		fmt.Println(cli.RenderKV("Resets in", cli.FormatCountdown(time.Until(snap.ResetAt))))
	}
	if !snap.LastUpdated.IsZero() {
		fmt.Println(cli.RenderKV("Updated", cli.FormatTime(snap.LastUpdated)))
	}
}
