package main

import (
	"bufio"
	"io"

	"github.com/spf13/cobra"

	"github.com/sameehj/boxsh/pkg/history"
	"github.com/sameehj/boxsh/pkg/shell"
)

func runCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run -- <line>...",
		Short: "Execute command lines in order and exit",
		Long: "Each argument is one command line. Execution stops at exit or quit. " +
			"The process exits 1 if any line reported an error.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			sess, err := a.newSession("run", shell.NewLineConfirmer(in, out), history.New(a.cfg.History.Limit))
			if err != nil {
				return err
			}

			failed := false
			for _, line := range args {
				resp := sess.Execute(cmd.Context(), line)
				if _, err := io.WriteString(out, resp.Render()); err != nil {
					return err
				}
				failed = failed || resp.Failed()
				if resp.Exit {
					break
				}
			}
			if failed {
				return errCommandFailed
			}
			return nil
		},
	}
}
