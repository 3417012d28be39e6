package cmd

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/ghlc/internal/config"
	"github.com/theirongolddev/ghlc/internal/tui/theme"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := config.Load()

	baseURL := cfg.API.BaseURL
	timeout := strconv.Itoa(cfg.API.TimeoutSec)
	themeName := cfg.Appearance.Theme
	history := cfg.History.Enabled

	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to ghlc").
				Description("Point the console at your scheduling backend."),
			huh.NewInput().
				Title("Backend base URL").
				Value(&baseURL).
				Validate(validateBaseURL),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Description("0 waits as long as the transport allows").
				Value(&timeout).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 0 {
						return fmt.Errorf("enter a whole number of seconds")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&themeName),
			huh.NewConfirm().
				Title("Record quota history?").
				Description("Snapshots are kept locally for `ghlc history`").
				Value(&history),
		),
	).WithTheme(huh.ThemeDracula())

	if err := form.RunWithContext(cmd.Context()); err != nil {
		return err
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	cfg.API.TimeoutSec, _ = strconv.Atoi(strings.TrimSpace(timeout))
	cfg.Appearance.Theme = themeName
	cfg.History.Enabled = history

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `ghlc setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("enter an http(s) URL")
	}
	return nil
}
