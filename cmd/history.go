package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ghlc/internal/cli"
	"github.com/theirongolddev/ghlc/internal/config"
	"github.com/theirongolddev/ghlc/internal/store"
)

var (
	flagHistoryLimit int
	flagHistoryPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded quota snapshots",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of snapshots to show")
	historyCmd.Flags().DurationVar(&flagHistoryPrune, "prune", 0, "Delete snapshots older than this age (e.g. 720h)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseFormat(flagOutput)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	h, err := store.Open(config.HistoryPath(cfg))
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() { _ = h.Close() }()

	ctx := cmd.Context()

	if flagHistoryPrune > 0 {
		n, err := h.Prune(ctx, time.Now().Add(-flagHistoryPrune))
		if err != nil {
			return err
		}
		info("  Pruned %d snapshots older than %s\n", n, flagHistoryPrune)
	}

	entries, err := h.Recent(ctx, flagHistoryLimit)
	if err != nil {
		return err
	}
	if format.Structured() {
		return cli.Encode(os.Stdout, format, entries)
	}

	if len(entries) == 0 {
		fmt.Println("  No quota history recorded yet.")
		return nil
	}

	total, err := h.Count(ctx)
	if err != nil {
		return err
	}

	cli.ConfigureColor(os.Stdout)
	rows := make([][]string, 0, len(entries))
	trend := make([]float64, 0, len(entries))
	for i, e := range entries {
		s := e.Snapshot
		rows = append(rows, []string{
			cli.FormatTime(e.RecordedAt),
			s.Level().String(),
			cli.FormatRatio(s.Remaining, s.Limit),
			cli.FormatRatio(s.DailyRemaining, s.DailyLimit),
			shortID(e.SessionID),
		})
		// entries are newest first; the sparkline reads left to right
		last := entries[len(entries)-1-i].Snapshot
		trend = append(trend, last.RemainingPct())
	}

	fmt.Println(cli.RenderTable(cli.Table{
		Title:      fmt.Sprintf("Quota history (%d of %d)", len(entries), total),
		Headers:    []string{"Recorded", "Level", "Window", "Daily", "Session"},
		Rows:       rows,
		RightAlign: map[int]bool{2: true, 3: true},
	}))
	fmt.Printf("  Remaining  %s\n", cli.RenderSparkline(trend))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
