/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/josephgoksu/CreditDesk/internal/config"
	"github.com/josephgoksu/CreditDesk/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// cfgFile is the path to the configuration file.
	cfgFile string
	// verbose enables verbose output.
	verbose bool
	// version is the application version.
	version = "0.3.0"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "creditdesk",
	Short: "CreditDesk - credit request desk for clients and bankers",
	Long: `CreditDesk is the terminal front end of the credit decisioning backend.

Clients submit and follow their credit requests. Bankers triage the inbox,
read what every analysis agent concluded, question the agents and record
decisions under the team's policies.

Examples:
  creditdesk login --email banker@bank.fr
  creditdesk requests list --since now
  creditdesk requests show 42
  creditdesk requests watch
  creditdesk explain --agent decision payload.json
  creditdesk decide 42 approve --note "Dossier complet"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr())
		logger.SetCommand(cmd.CommandPath())
		if dir, err := config.GetGlobalConfigDir(); err == nil {
			logger.SetBasePath(dir)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	defer logger.HandlePanic()
	logger.SetVersion(version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(friendlyMessage(err), err)
		stop()
		os.Exit(1)
	}
}

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

func init() {
	cobra.OnInitialize(InitConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.creditdesk/config.yaml or ~/.creditdesk/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: text, json or yaml")
	rootCmd.PersistentFlags().String("base-url", "", "backend URL (overrides api.baseURL)")
	bindFlags()
}

// bindFlags binds the persistent flags to viper keys.
func bindFlags() {
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("render.output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("api.baseURL", rootCmd.PersistentFlags().Lookup("base-url"))
}

// setupLogging installs the default slog handler. Verbose runs log backend
// calls and cache activity at debug level.
func setupLogging(w io.Writer) {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// versionCmd prints the version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CreditDesk version",
	RunE: func(cmd *cobra.Command, args []string) error {
		if isStructuredOutput() {
			return printOutput(cmd.OutOrStdout(), map[string]string{"version": version})
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "creditdesk %s\n", version)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
