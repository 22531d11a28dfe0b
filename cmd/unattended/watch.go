package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cboone/unattended"
)

var (
	watchFlags  overrides
	waitSession time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Answer prompts in a tmux session that is already running",
	Long: `watch attaches the prompt engine to an existing tmux session. If the session's
pane is not yet mirrored to the transcript file, logging is turned on. Only
output written after watch starts is considered.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		watchFlags.apply(cmd, &cfg)
		if err := promptMissingVars(&cfg, os.Stdin, cmd.OutOrStdout()); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		table, err := cfg.Table()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := &printer{w: cmd.OutOrStdout(), quiet: watchFlags.quiet}

		sess, err := unattended.NewSession(ctx, cfg.Session.Name, cfg.Session.Log, cfg.SessionOptions()...)
		if err != nil {
			return err
		}
		out.step("waiting for tmux session %q", sess.Name())
		if err := sess.WaitReady(ctx, waitSession); err != nil {
			return err
		}
		if err := sess.EnableLogging(ctx); err != nil {
			return err
		}

		engine, err := unattended.NewEngine(table, sess, append(cfg.EngineOptions(),
			unattended.WithLogger(logger),
			unattended.WithEventHandler(out.event),
		)...)
		if err != nil {
			return err
		}

		err = engine.Run(ctx, sess.LogPath())
		return finish(cfg.Policy, sess, engine.Responses(), err, out)
	},
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().DurationVar(&waitSession, "wait", 5*time.Second, "How long to wait for the session to exist")
	rootCmd.AddCommand(watchCmd)
}
