package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cboone/unattended"
	"github.com/cboone/unattended/internal/provision"
)

// overrides holds the flags that adjust a loaded Config.
type overrides struct {
	session   string
	log       string
	socket    string
	tmux      string
	installer string
	policy    unattended.Policy
	timeout   time.Duration
	nodeID    string
	vars      map[string]string
	quiet     bool
}

func (o *overrides) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.session, "session", "s", "", "tmux session name")
	f.StringVar(&o.log, "log", "", "Transcript file the session output is mirrored to")
	f.StringVar(&o.socket, "socket", "", "Private tmux server socket (default: the user's tmux server)")
	f.StringVar(&o.tmux, "tmux", "", "Path to the tmux binary")
	f.Var(&o.policy, "policy", "Completion policy: consume-once or repeat-forever")
	f.DurationVar(&o.timeout, "timeout", 0, "Give up if the policy is not satisfied within this duration (0 waits forever)")
	f.StringVar(&o.nodeID, "node-id", "", "Value for the ${node_id} placeholder")
	f.StringToStringVar(&o.vars, "var", nil, "Placeholder value as name=value (repeatable)")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "Only show prompts and responses, not every transcript line")
}

func (o *overrides) apply(cmd *cobra.Command, cfg *unattended.Config) {
	f := cmd.Flags()
	if o.session != "" {
		cfg.Session.Name = o.session
	}
	if o.log != "" {
		cfg.Session.Log = o.log
	}
	if o.socket != "" {
		cfg.Session.Socket = o.socket
	}
	if o.tmux != "" {
		cfg.Session.Tmux = o.tmux
	}
	if o.installer != "" {
		cfg.Installer = o.installer
	}
	if f.Changed("policy") {
		cfg.Policy = o.policy
	}
	if f.Changed("timeout") {
		cfg.Timeout = o.timeout
	}

	if cfg.Vars == nil {
		cfg.Vars = make(map[string]string)
	}
	for k, v := range unattended.VarsFromEnv(cfg.Rules.Placeholders()) {
		cfg.Vars[k] = v
	}
	for k, v := range o.vars {
		cfg.Vars[k] = v
	}
	if o.nodeID != "" {
		cfg.Vars[unattended.NodeIDVar] = o.nodeID
	}
}

// promptMissingVars asks the operator for placeholder values that are still
// unset. It refuses when stdin is not a terminal.
func promptMissingVars(cfg *unattended.Config, in *os.File, out io.Writer) error {
	missing := cfg.MissingVars()
	if len(missing) == 0 {
		return nil
	}
	if !term.IsTerminal(int(in.Fd())) {
		return fmt.Errorf("no value for %s; pass --var %s=... or --node-id", strings.Join(missing, ", "), missing[0])
	}
	reader := bufio.NewReader(in)
	for _, name := range missing {
		fmt.Fprintf(out, "Enter %s: ", strings.ReplaceAll(name, "_", " "))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read %s: %w", name, err)
		}
		value := strings.TrimSpace(line)
		if value == "" {
			return fmt.Errorf("no value for %s", name)
		}
		cfg.Vars[name] = value
	}
	return nil
}

var (
	runFlags  overrides
	skipSetup bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Provision the host, start the installer in tmux, and answer its prompts",
	Long: `run executes the configured setup steps, creates a detached tmux session with
its output mirrored to the transcript file, starts the installer inside it,
and answers each known prompt as it appears.

With the consume-once policy the command exits once every required prompt has
been answered. With repeat-forever it keeps answering until interrupted. In
both cases the tmux session is left running.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runFlags.apply(cmd, &cfg)
		if err := promptMissingVars(&cfg, os.Stdin, cmd.OutOrStdout()); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.Installer == "" {
			return errors.New("config: installer is required")
		}
		table, err := cfg.Table()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := &printer{w: cmd.OutOrStdout(), quiet: runFlags.quiet}

		if !skipSetup && len(cfg.Setup) > 0 {
			runner := provision.NewRunner()
			runner.Stdout = cmd.OutOrStdout()
			runner.Stderr = cmd.ErrOrStderr()
			runner.Logger = logger
			runner.Announce = func(i, total int, step unattended.SetupStep) {
				out.step("[%d/%d] %s", i+1, total, step.Name)
			}
			if err := runner.Run(ctx, cfg.Setup); err != nil {
				out.fail("environment setup failed")
				return err
			}
			out.done("environment ready")
		}

		return automate(ctx, cfg, table, out)
	},
}

func init() {
	runFlags.register(runCmd)
	runCmd.Flags().StringVar(&runFlags.installer, "installer", "", "Shell command that starts the installer")
	runCmd.Flags().BoolVar(&skipSetup, "skip-setup", false, "Skip the environment setup steps")
	rootCmd.AddCommand(runCmd)
}

// automate creates the session, starts the installer, and runs the engine.
func automate(ctx context.Context, cfg unattended.Config, table unattended.Table, out *printer) error {
	sess, err := unattended.NewSession(ctx, cfg.Session.Name, cfg.Session.Log, cfg.SessionOptions()...)
	if err != nil {
		return err
	}

	out.step("creating tmux session %q", sess.Name())
	if err := sess.Create(ctx); err != nil {
		return err
	}
	if err := sess.EnableLogging(ctx); err != nil {
		return err
	}
	awaitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = unattended.AwaitTranscript(awaitCtx, sess.LogPath(), 50*time.Millisecond)
	cancel()
	if err != nil {
		return &unattended.SessionError{Op: "log", Name: sess.Name(), Err: fmt.Errorf("transcript %s never appeared: %w", sess.LogPath(), err)}
	}
	tr, err := unattended.OpenTranscript(sess.LogPath())
	if err != nil {
		return err
	}
	defer tr.Close()

	engine, err := unattended.NewEngine(table, sess, append(cfg.EngineOptions(),
		unattended.WithLogger(logger),
		unattended.WithEventHandler(out.event),
	)...)
	if err != nil {
		return err
	}

	out.step("starting installer: %s", cfg.Installer)
	if err := sess.Send(ctx, cfg.Installer); err != nil {
		return err
	}

	err = engine.Watch(ctx, tr)
	return finish(cfg.Policy, sess, engine.Responses(), err, out)
}

// sessionView is what finish needs from a session.
type sessionView interface {
	Capture(ctx context.Context) (string, error)
	AttachCommand() string
}

// finish reports how the engine stopped and maps it to the command result.
func finish(policy unattended.Policy, sess sessionView, responses int, err error, out *printer) error {
	switch {
	case err == nil:
		out.done("all prompts answered (%d responses)", responses)
	case errors.Is(err, context.Canceled) && policy == unattended.RepeatForever:
		out.done("stopped after %d responses", responses)
		err = nil
	case errors.Is(err, unattended.ErrPromptTimeout):
		out.fail("%v", err)
		// The run context may be done; capture with a fresh one.
		captureCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if screen, capErr := sess.Capture(captureCtx); capErr == nil {
			out.plain("last screen:\n" + screen)
		}
	default:
		out.fail("%v", err)
	}

	out.plain(fmt.Sprintf("The session is still running. Attach with: %s (detach with Ctrl-b d)", sess.AttachCommand()))
	return err
}
