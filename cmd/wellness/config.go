// ABOUTME: CLI commands for viewing and editing the config file.
// ABOUTME: Secrets from the environment are never written back to disk.
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/wellness/internal/config"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "View and edit configuration",
	Annotations: standalone(),
	Long: `View and edit configuration stored at ~/.config/wellness/config.json.

Environment variables (WELLNESS_*, TZ, GARMIN_TOKENS) override the file.

COMMANDS:

  show   Print the effective configuration
  path   Print the config file path
  set    Set a config key in the file`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := cfg.Location()
		zone := ""
		if err != nil {
			zone = color.RedString("invalid (%v)", err)
		} else {
			zone = loc.String()
		}
		tokens := "not configured"
		if _, err := cfg.SessionTokens(); err == nil {
			tokens = "configured"
		}

		rows := [][2]string{
			{"backend", cfg.GetBackend()},
			{"data_dir", cfg.GetDataDir()},
			{"ledger_name", cfg.GetLedgerName()},
			{"timezone", zone},
			{"tokens", tokens},
			{"http_address", cfg.GetHTTPAddress()},
			{"schedule", orDash(cfg.Schedule)},
			{"fetch_timeout", cfg.GetFetchTimeout().String()},
			{"write_timeout", cfg.GetWriteTimeout().String()},
			{"log_level", cfg.GetLogLevel()},
		}
		for _, r := range rows {
			fmt.Printf("%s %s\n", color.New(color.Faint).Sprint(padRight(r[0], 14)), r[1])
		}
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.GetConfigPath())
	},
}

// configSetters maps file keys to the field they update.
var configSetters = map[string]func(c *config.Config, v string){
	"backend":       func(c *config.Config, v string) { c.Backend = v },
	"data_dir":      func(c *config.Config, v string) { c.DataDir = v },
	"ledger_name":   func(c *config.Config, v string) { c.LedgerName = v },
	"timezone":      func(c *config.Config, v string) { c.Timezone = v },
	"tokens_file":   func(c *config.Config, v string) { c.TokensFile = v },
	"api_base_url":  func(c *config.Config, v string) { c.APIBaseURL = v },
	"display_name":  func(c *config.Config, v string) { c.DisplayName = v },
	"charm_host":    func(c *config.Config, v string) { c.CharmHost = v },
	"charm_db":      func(c *config.Config, v string) { c.CharmDB = v },
	"fetch_timeout": func(c *config.Config, v string) { c.FetchTimeout = v },
	"write_timeout": func(c *config.Config, v string) { c.WriteTimeout = v },
	"http_address":  func(c *config.Config, v string) { c.HTTPAddress = v },
	"schedule":      func(c *config.Config, v string) { c.Schedule = v },
	"log_level":     func(c *config.Config, v string) { c.LogLevel = v },
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config key in the file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, ok := configSetters[args[0]]
		if !ok {
			return fmt.Errorf("unknown key: %s (valid: %s)", args[0], strings.Join(configKeys(), ", "))
		}
		// Edit the file as stored so environment overrides are not persisted.
		fileCfg, err := config.LoadFile()
		if err != nil {
			return err
		}
		set(fileCfg, args[1])
		if err := fileCfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		color.Green("✓ %s = %s", args[0], args[1])
		return nil
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
