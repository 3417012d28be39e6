package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/ghlc/internal/cli"
	"github.com/theirongolddev/ghlc/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(config.ConfigPath())
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	format, err := cli.ParseFormat(flagOutput)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if format.Structured() {
		return cli.Encode(os.Stdout, format, cfg)
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL: %s\n", config.GetBaseURL(cfg))
	if cfg.API.TimeoutSec > 0 {
		fmt.Printf("    Timeout:  %ds\n", cfg.API.TimeoutSec)
	} else {
		fmt.Println("    Timeout:  none")
	}
	if len(cfg.API.Headers) > 0 {
		names := make([]string, 0, len(cfg.API.Headers))
		for k := range cfg.API.Headers {
			names = append(names, k)
		}
		sort.Strings(names)
		fmt.Printf("    Headers:  %s\n", strings.Join(names, ", "))
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", config.GetLogLevel(cfg))
	fmt.Printf("    File:  %s\n", config.LogFile(cfg))
	fmt.Println()

	fmt.Println("  [Monitor]")
	fmt.Printf("    Address:  %s\n", cfg.Monitor.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Monitor.Interval())
	fmt.Printf("    Events:   %d\n", cfg.Monitor.EventsBuffer)
	fmt.Println()

	fmt.Println("  [History]")
	fmt.Printf("    Enabled: %v\n", cfg.History.Enabled)
	fmt.Printf("    Path:    %s\n", config.HistoryPath(cfg))
	fmt.Println()

	fmt.Println("  Run `ghlc setup` to reconfigure.")
	return nil
}
