package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ritzau/org-directory/pkg/config"
	"github.com/ritzau/org-directory/pkg/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "org-directory",
		Short:         "Organization directory: search people, browse reporting lines, map teams",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTreeCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newValidateCmd())
	return cmd
}

// Execute runs the root command and exits with a code per failure class
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(code)
	}
}

// loadConfig layers defaults, config file, environment and the command's
// flags, then applies the logging settings
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, withCode(exitConfig, err)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		return nil, withCode(exitConfig, err)
	}
	// Logs go to stderr so command output stays pipeable
	logging.SetOutput(os.Stderr, cfg.LogFormat == "json")
	logging.SetLevel(level)

	logging.Debug("configuration loaded",
		"source", cfg.Source,
		"port", cfg.Port,
		"config", cfg.ConfigFile,
	)
	return cfg, nil
}
