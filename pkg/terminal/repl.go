package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/sameehj/boxsh/pkg/shell"
)

// REPL drives a shell session from a line reader. Prompt, banner and the
// closing "exit" are only written in interactive mode.
type REPL struct {
	session     *shell.Session
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	banner      string
}

// New wires a REPL. in must be the same reader the session's confirmer uses.
func New(session *shell.Session, in *bufio.Reader, out io.Writer) *REPL {
	return &REPL{session: session, in: in, out: out}
}

func (r *REPL) SetInteractive(interactive bool) {
	r.interactive = interactive
}

func (r *REPL) SetBanner(banner string) {
	r.banner = banner
}

type readResult struct {
	line string
	err  error
}

// Run reads and executes lines until exit, EOF, or ctx is done.
// It returns an error only when the input or output fails.
func (r *REPL) Run(ctx context.Context) error {
	if r.interactive && r.banner != "" {
		if _, err := fmt.Fprintln(r.out, r.banner); err != nil {
			return err
		}
	}
	for {
		if r.interactive {
			if _, err := io.WriteString(r.out, r.session.Prompt()); err != nil {
				return err
			}
		}
		line, readErr := r.readLine(ctx)
		if line == "" && readErr != nil {
			if errors.Is(readErr, io.EOF) || ctx.Err() != nil {
				r.farewell()
				return nil
			}
			return readErr
		}

		resp := r.session.Execute(ctx, strings.TrimRight(line, "\r\n"))
		if out := resp.Render(); out != "" {
			if _, err := io.WriteString(r.out, out); err != nil {
				return err
			}
		}
		if resp.Exit || readErr != nil {
			return nil
		}
	}
}

// readLine returns early when ctx is cancelled. The pending read is left
// behind; the process is expected to exit shortly after.
func (r *REPL) readLine(ctx context.Context) (string, error) {
	ch := make(chan readResult, 1)
	go func() {
		line, err := r.in.ReadString('\n')
		ch <- readResult{line: line, err: err}
	}()
	select {
	case res := <-ch:
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *REPL) farewell() {
	if r.interactive {
		_, _ = io.WriteString(r.out, "\nexit\n")
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
