/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephgoksu/CreditDesk/internal/config"
	"github.com/josephgoksu/CreditDesk/internal/ui"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change CreditDesk settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if isStructuredOutput() {
			return printOutput(cmd.OutOrStdout(), cfg)
		}
		file := viper.ConfigFileUsed()
		if file == "" {
			file = "aucun fichier, valeurs par défaut"
		}
		out := cmd.OutOrStdout()
		ui.RenderPageHeader(out, "Configuration", file)
		t := &ui.Table{Headers: []string{"Clé", "Valeur"}, Rows: configRows(cfg)}
		_, err := fmt.Fprint(out, t.Render())
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist a setting in ~/.creditdesk/config.yaml",
	Long: `Persist a setting in the global configuration file.

Examples:
  creditdesk config set api.baseURL https://credit.example.fr
  creditdesk config set poll.bankerIntervalSeconds 30
  creditdesk config set policy.enabled false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, ok := canonicalConfigKey(strings.TrimSpace(args[0]))
		if !ok {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		value := parseConfigValue(args[1])
		if err := config.SetGlobalValue(appFs, key, value); err != nil {
			return err
		}
		cmd.Printf("%s %s = %v\n", ui.Icon("✓", ui.StyleSuccess), key, value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd)
}

// configRows lists every settable key with its effective value.
func configRows(cfg *types.AppConfig) [][]string {
	return [][]string{
		{"api.baseURL", cfg.API.BaseURL},
		{"api.timeoutSeconds", strconv.Itoa(cfg.API.TimeoutSeconds)},
		{"poll.bankerIntervalSeconds", strconv.Itoa(cfg.Poll.BankerIntervalSeconds)},
		{"poll.clientIntervalSeconds", strconv.Itoa(cfg.Poll.ClientIntervalSeconds)},
		{"poll.focusMinGapMillis", strconv.Itoa(cfg.Poll.FocusMinGapMillis)},
		{"render.maxItems", strconv.Itoa(cfg.Render.MaxItems)},
		{"render.output", cfg.Render.Output},
		{"cache.size", strconv.Itoa(cfg.Cache.Size)},
		{"session.file", cfg.Session.File},
		{"snapshot.enabled", strconv.FormatBool(cfg.Snapshot.Enabled)},
		{"snapshot.path", orDefault(cfg.Snapshot.Path, config.GetSnapshotPath())},
		{"policy.enabled", strconv.FormatBool(cfg.Policy.Enabled)},
		{"policy.dir", orDefault(cfg.Policy.Dir, config.GetPolicyDir())},
	}
}

// canonicalConfigKey returns key spelled the way the config file expects.
func canonicalConfigKey(key string) (string, bool) {
	for _, row := range configRows(GetConfig()) {
		if strings.EqualFold(row[0], key) {
			return row[0], true
		}
	}
	return "", false
}

// parseConfigValue keeps booleans and integers typed in the YAML file.
func parseConfigValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
