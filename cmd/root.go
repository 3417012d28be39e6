// Package cmd implements the ghlc CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/ghlc/internal/api"
	"github.com/theirongolddev/ghlc/internal/cli"
	"github.com/theirongolddev/ghlc/internal/config"
	"github.com/theirongolddev/ghlc/internal/console"
	"github.com/theirongolddev/ghlc/internal/observability"
	"github.com/theirongolddev/ghlc/internal/ratelimit"
	"github.com/theirongolddev/ghlc/internal/store"
)

var (
	flagBaseURL   string
	flagQuiet     bool
	flagOutput    string
	flagNoHistory bool
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "ghlc",
	Short: "Appointment scheduling backend console",
	Long:  "Test connectivity, browse calendars, book appointments and watch API quota against a scheduling backend.",
	RunE:  runTUI,

	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.RenderError(api.UserMessage(err)))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "Backend base URL (overrides config and GHLC_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&flagNoHistory, "no-history", false, "Do not journal quota snapshots")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Mirror logs to stderr")
}

// app is the per-process wiring: one config, one session, one logger.
type app struct {
	cfg     config.Config
	sess    *console.Session
	logger  *zap.Logger
	metrics *observability.Metrics
	history *store.History
	format  cli.Format

	stopFollow func()
}

type appOptions struct {
	// interactive keeps log output off the terminal.
	interactive bool
}

// newApp loads config and builds the session every command runs against.
func newApp(opts appOptions) (*app, error) {
	format, err := cli.ParseFormat(flagOutput)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(observability.LogOptions{
		Level:  config.GetLogLevel(cfg),
		File:   config.LogFile(cfg),
		Stderr: flagVerbose && !opts.interactive,
	})
	metrics := observability.NewMetrics()

	baseURL := config.GetBaseURL(cfg)
	if flagBaseURL != "" {
		baseURL = flagBaseURL
	}

	client, err := api.NewClient(baseURL,
		api.WithTimeout(cfg.API.Timeout()),
		api.WithHeaders(cfg.API.Headers),
		api.WithLogger(logger),
		api.WithObserver(metrics),
	)
	if err != nil {
		return nil, err
	}

	quota := ratelimit.NewStore()
	a := &app{
		cfg:        cfg,
		sess:       console.New(client, quota, console.WithLogger(logger)),
		logger:     logger,
		metrics:    metrics,
		format:     format,
		stopFollow: func() {},
	}

	if cfg.History.Enabled && !flagNoHistory {
		a.startHistory()
	}
	return a, nil
}

// startHistory journals every snapshot this process observes. A journal
// that cannot be opened is logged and skipped.
func (a *app) startHistory() {
	path := config.HistoryPath(a.cfg)
	h, err := store.Open(path)
	if err != nil {
		a.logger.Warn("quota history unavailable", zap.String("path", path), zap.Error(err))
		return
	}
	a.history = h

	sessionID := uuid.NewString()
	updates, unsubscribe := a.sess.Store().Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Follow(ctx, sessionID, updates, a.logger)
	}()

	a.logger.Debug("quota history enabled", zap.String("path", path), zap.String("session_id", sessionID))

	// Closing the subscription lets Follow drain buffered snapshots first.
	a.stopFollow = func() {
		unsubscribe()
		<-done
		cancel()
	}
}

func (a *app) Close() {
	a.stopFollow()
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("closing history", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// withApp builds the app, runs fn with the command context and tears down.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	cli.ConfigureColor(os.Stdout)
	return fn(cmd.Context(), a)
}

// emit prints v in a structured format, or calls table for the default.
func (a *app) emit(v any, table func()) error {
	if a.format.Structured() {
		return cli.Encode(os.Stdout, a.format, v)
	}
	table()
	return nil
}

// info prints a line unless --quiet.
func info(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}

// printQuotaFooter reports the quota after a command in table mode.
func (a *app) printQuotaFooter() {
	if flagQuiet || a.format.Structured() {
		return
	}
	snap := a.sess.Store().Current()
	if !snap.Known() {
		return
	}
	fmt.Printf("\n  %s %s  %s\n",
		cli.RenderLevel(snap.Level()),
		cli.RenderQuotaBar(snap.RemainingPct(), 20, snap.Color()),
		cli.FormatRatio(snap.Remaining, snap.Limit))
}
