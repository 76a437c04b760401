package shell

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sameehj/boxsh/pkg/sandbox"
)

// Env is what a handler sees of its session for one invocation.
type Env struct {
	ctx     context.Context
	session *Session
	out     bytes.Buffer
	errs    []error
}

func (e *Env) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

func (e *Env) Printf(format string, args ...any) {
	fmt.Fprintf(&e.out, format, args...)
}

func (e *Env) Println(args ...any) {
	fmt.Fprintln(&e.out, args...)
}

// Report prints err as one diagnostic line and lets the handler continue.
func (e *Env) Report(err error) {
	if err == nil {
		return
	}
	e.errs = append(e.errs, err)
	e.out.WriteString(ErrorPrefix + err.Error() + "\n")
	e.session.logDebug("command_item_failed", "error", err)
}

func (e *Env) Root() string {
	return e.session.resolver.Root()
}

func (e *Env) Cwd() string {
	return e.session.cwd
}

// Resolve confines a path argument. It only fails under the reject policy
// or when a clamp target is itself a link out of the root.
func (e *Env) Resolve(input string) (string, error) {
	p, err := e.session.resolver.Resolve(e.session.cwd, input)
	if err != nil {
		if errors.Is(err, sandbox.ErrOutsideRoot) {
			return "", &Error{Kind: KindConfinement, Msg: "access outside sandbox root is blocked: " + input, Err: err}
		}
		return "", err
	}
	return p, nil
}

// Contains re-checks p against the root.
func (e *Env) Contains(p string) bool {
	return e.session.resolver.Contains(p)
}

func (e *Env) Display(p string) string {
	return e.session.resolver.Display(p)
}

func (e *Env) Confirm(prompt string) bool {
	return e.session.confirm.Confirm(e.Context(), prompt)
}

func (e *Env) setCwd(p string) {
	e.session.cwd = p
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// LineConfirmer writes "prompt [y/N]: " and reads one answer line. Only
// "y" (any case) confirms; EOF declines.
type LineConfirmer struct {
	r *bufio.Reader
	w io.Writer
}

// NewLineConfirmer shares r with the caller's own line reader.
func NewLineConfirmer(r *bufio.Reader, w io.Writer) *LineConfirmer {
	return &LineConfirmer{r: r, w: w}
}

func (c *LineConfirmer) Confirm(ctx context.Context, prompt string) bool {
	if ctx.Err() != nil {
		return false
	}
	if _, err := fmt.Fprintf(c.w, "%s [y/N]: ", prompt); err != nil {
		return false
	}
	answer, err := c.r.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
