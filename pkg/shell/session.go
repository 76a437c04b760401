package shell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/sameehj/boxsh/pkg/exec"
	"github.com/sameehj/boxsh/pkg/history"
	"github.com/sameehj/boxsh/pkg/sandbox"
)

type Options struct {
	// ID tags log lines. Empty means "local".
	ID       string
	Escape   sandbox.EscapePolicy
	Registry *Registry
	History  *history.History
	Executor *exec.SafeExecutor
	// Confirm answers rm -r prompts. Nil declines every prompt.
	Confirm Confirmer
	Logger  *slog.Logger
}

// Session holds the sandbox root and working directory for one user.
// Execute calls are serialized.
type Session struct {
	mu       sync.Mutex
	id       string
	resolver *sandbox.Resolver
	cwd      string
	registry *Registry
	history  *history.History
	executor *exec.SafeExecutor
	confirm  Confirmer
	logger   *slog.Logger
}

// New creates root if needed and starts a session there.
func New(root string, opts Options) (*Session, error) {
	resolver, err := sandbox.NewResolver(root, opts.Escape)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:       opts.ID,
		resolver: resolver,
		cwd:      resolver.Root(),
		registry: opts.Registry,
		history:  opts.History,
		executor: opts.Executor,
		confirm:  opts.Confirm,
		logger:   opts.Logger,
	}
	if s.id == "" {
		s.id = "local"
	}
	if s.registry == nil {
		s.registry = DefaultRegistry()
	}
	if s.executor == nil {
		s.executor = &exec.SafeExecutor{}
	}
	if s.confirm == nil {
		s.confirm = ConfirmFunc(func(context.Context, string) bool { return false })
	}
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Root() string {
	return s.resolver.Root()
}

func (s *Session) Cwd() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

// Prompt renders the working directory relative to the root.
func (s *Session) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("boxsh:%s$ ", s.resolver.Display(s.cwd))
}

// Response is the single outcome of one Execute call.
type Response struct {
	// Output holds everything the command printed, including per-item
	// error lines.
	Output string
	// Errors are the per-item failures already rendered into Output.
	Errors []error
	// Err is the failure that ended the command, if any.
	Err error
	// Exit is set when the command asked to end the session.
	Exit bool
}

// Failed reports whether any error was raised, terminal or per-item.
func (r Response) Failed() bool {
	return r.Err != nil || len(r.Errors) > 0
}

// Render returns the text a front end should display.
func (r Response) Render() string {
	var b strings.Builder
	b.WriteString(r.Output)
	if r.Output != "" && !strings.HasSuffix(r.Output, "\n") {
		b.WriteByte('\n')
	}
	if r.Err != nil {
		b.WriteString(ErrorPrefix + r.Err.Error() + "\n")
	}
	return b.String()
}

// Execute runs one input line. It never panics and never returns an error
// through any channel other than the Response.
func (s *Session) Execute(ctx context.Context, line string) Response {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(line) == "" {
		return Response{}
	}
	if s.history != nil {
		s.history.Add(line)
	}

	tokens, err := Tokenize(line)
	if err != nil {
		s.logDebug("command_parse_failed", "error", err)
		return Response{Err: err}
	}
	if len(tokens) == 0 {
		return Response{}
	}

	name, args := tokens[0], tokens[1:]
	cmd, ok := s.registry.Lookup(name)
	if !ok {
		s.logDebug("command_unknown", "command", name)
		return Response{Err: unknownCommand(s.registry, name)}
	}

	s.logDebug("command_start", "command", name, "args", len(args), "cwd", s.resolver.Display(s.cwd))
	env := &Env{ctx: ctx, session: s}
	err = s.invoke(cmd, env, args)

	resp := Response{Output: env.out.String(), Errors: env.errs}
	switch {
	case errors.Is(err, ErrExit):
		resp.Exit = true
	case err != nil:
		resp.Err = err
		s.logDebug("command_failed", "command", name, "error", err)
	}
	return resp
}

func (s *Session) invoke(cmd Command, env *Env, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logError("command_panic", "command", cmd.Name, "panic", r)
			err = newError(KindIO, "%s: internal error: %v", cmd.Name, r)
		}
	}()
	return cmd.Run(env, args)
}

// Close persists history.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.history == nil {
		return nil
	}
	if err := s.history.Save(); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (s *Session) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, append([]any{"session", s.id}, args...)...)
	}
}

func (s *Session) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, append([]any{"session", s.id}, args...)...)
	}
}
