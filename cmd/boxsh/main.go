package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sameehj/boxsh/pkg/config"
	"github.com/sameehj/boxsh/pkg/history"
	"github.com/sameehj/boxsh/pkg/logging"
	"github.com/sameehj/boxsh/pkg/shell"
	"github.com/sameehj/boxsh/pkg/terminal"
	"github.com/sameehj/boxsh/pkg/version"
)

// errCommandFailed makes the process exit 1 without a second message; the
// failing command already printed its own error line.
var errCommandFailed = errors.New("command failed")

type options struct {
	configPath string
	root       string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errCommandFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "boxsh",
		Short:         "A command shell confined to one directory",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default: ~/.boxsh/config.yaml)")
	flags.StringVar(&opts.root, "root", "", "sandbox root directory (default: $BOXSH_ROOT or the working directory)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: json or text")

	root.AddCommand(runCmd(opts))
	root.AddCommand(serveCmd(opts))
	root.AddCommand(doctorCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

// app is the resolved configuration shared by every subcommand.
type app struct {
	cfg    *config.Config
	root   string
	logger *slog.Logger
}

func loadApp(cmd *cobra.Command, opts *options) (*app, error) {
	if wd, err := os.Getwd(); err == nil {
		if err := config.LoadDotEnvFromDir(wd); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
	}
	root, err := cfg.RootDir(opts.root)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		root:   root,
		logger: logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()),
	}, nil
}

func (a *app) newSession(id string, confirm shell.Confirmer, hist *history.History) (*shell.Session, error) {
	return shell.New(a.root, shell.Options{
		ID:       id,
		Escape:   a.cfg.EscapePolicy(),
		History:  hist,
		Executor: a.cfg.Executor(),
		Confirm:  confirm,
		Logger:   a.logger,
	})
}

func runREPL(cmd *cobra.Command, opts *options) error {
	a, err := loadApp(cmd, opts)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hist, err := history.Load(a.cfg.HistoryPath(a.root), a.cfg.History.Limit)
	if err != nil {
		a.logger.Warn("history_load_failed", "error", err)
		hist = history.New(a.cfg.History.Limit)
	}

	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	sess, err := a.newSession("local", shell.NewLineConfirmer(in, out), hist)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			a.logger.Warn("session_close_failed", "error", err)
		}
	}()

	repl := terminal.New(sess, in, out)
	repl.SetInteractive(isTerminal(cmd.InOrStdin()))
	repl.SetBanner(version.Banner())
	a.logger.Debug("session_start", "root", sess.Root())
	return repl.Run(ctx)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && terminal.IsTerminal(f)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
