package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridops/logsweep/internal/config"
	"github.com/gridops/logsweep/internal/errutil"
)

var rootCmd = &cobra.Command{
	Use:   "logsweep",
	Short: "Reclaims disk space by deleting stale low-value files",
	Long: `logsweep keeps a configured amount of free space on log-producing
nodes by deleting stale operational logs and incident artifacts, honoring
per-pattern staleness windows, retention floors and importance weights.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("debug") {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if _, printErr := fmt.Fprintln(os.Stderr, err); printErr != nil {
			errutil.ReportError(printErr, "Failed to print error to stderr")
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "logsweep.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Verbose operation mode")
	errutil.LogMsg(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")), "Failed to bind config flag")
	errutil.LogMsg(viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")), "Failed to bind debug flag")
}

func initConfig() {
	viper.SetEnvPrefix("LOGSWEEP")
	viper.AutomaticEnv()
}

// mustLoadConfig loads the configuration file or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		errutil.ReportError(err, "Invalid configuration")
		os.Exit(1)
	}
	return cfg
}
