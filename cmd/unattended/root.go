package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cboone/unattended"
	"github.com/cboone/unattended/internal/logging"
)

var (
	configPath string
	logLevel   string
	logger     = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "unattended",
	Short: "Answer an interactive installer's prompts inside a tmux session",
	Long: `unattended starts an installer inside a detached tmux session, watches the
session's transcript, and types the configured answer whenever a known prompt
appears. The session keeps running afterwards so it can be inspected with
tmux attach.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logger = logging.New(level, os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (defaults to the built-in Nexus installer)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Structured log level: debug, info, warn, error")
	rootCmd.SetErrPrefix("unattended:")
}

// loadConfig returns the file configuration, or the built-in default when no
// file was given.
func loadConfig() (unattended.Config, error) {
	if configPath == "" {
		return unattended.DefaultConfig(), nil
	}
	cfg, err := unattended.LoadConfig(configPath)
	if err != nil {
		return unattended.Config{}, err
	}
	logger.Debug("config loaded", slog.String("path", configPath), slog.Int("rules", len(cfg.Rules)))
	return cfg, nil
}
