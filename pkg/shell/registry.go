package shell

import (
	"fmt"

	"github.com/sahilm/fuzzy"
)

// Handler runs one verb. Output goes through env; a non-nil error becomes a
// single diagnostic line.
type Handler func(env *Env, args []string) error

type Command struct {
	Name    string
	Usage   string
	Summary string
	Run     Handler
}

// Registry is an immutable name to command table.
type Registry struct {
	commands map[string]Command
	order    []string
}

// NewRegistry builds a registry from cmds, preserving their order for help.
func NewRegistry(cmds ...Command) (*Registry, error) {
	r := &Registry{commands: make(map[string]Command, len(cmds))}
	for _, cmd := range cmds {
		if cmd.Name == "" {
			return nil, fmt.Errorf("command name is required")
		}
		if cmd.Run == nil {
			return nil, fmt.Errorf("command %s has no handler", cmd.Name)
		}
		if _, exists := r.commands[cmd.Name]; exists {
			return nil, fmt.Errorf("duplicate command: %s", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
		r.order = append(r.order, cmd.Name)
	}
	return r, nil
}

// DefaultRegistry returns the builtin command set.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(Builtins()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup is an exact, case-sensitive match.
func (r *Registry) Lookup(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Suggest returns the closest registered name to an unknown token, or "".
// It is only used to word the diagnostic.
func (r *Registry) Suggest(name string) string {
	if name == "" {
		return ""
	}
	matches := fuzzy.Find(name, r.order)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

func unknownCommand(r *Registry, name string) *Error {
	msg := fmt.Sprintf("unknown command: %s. Try 'help'.", name)
	if hint := r.Suggest(name); hint != "" && hint != name {
		msg = fmt.Sprintf("unknown command: %s. Did you mean '%s'? Try 'help'.", name, hint)
	}
	return &Error{Kind: KindUnknownCommand, Msg: msg}
}
