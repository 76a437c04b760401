package shell

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/sameehj/boxsh/pkg/sandbox"
)

// ErrorPrefix starts every diagnostic line a session prints.
const ErrorPrefix = "error: "

// ErrExit is returned by the exit handler. It is a request, not a failure.
var ErrExit = errors.New("exit")

// Kind classifies shell errors.
type Kind int

const (
	KindParse Kind = iota + 1
	KindUnknownCommand
	KindUsage
	KindNotFound
	KindWrongType
	KindConfinement
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse error"
	case KindUnknownCommand:
		return "unknown command"
	case KindUsage:
		return "usage error"
	case KindNotFound:
		return "not found"
	case KindWrongType:
		return "wrong type"
	case KindConfinement:
		return "confinement violation"
	case KindIO:
		return "i/o failure"
	default:
		return "error"
	}
}

// Error is a classified shell error. Msg is what the user sees.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the bare kind sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrParse          = &Error{Kind: KindParse}
	ErrUnknownCommand = &Error{Kind: KindUnknownCommand}
	ErrUsage          = &Error{Kind: KindUsage}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrWrongType      = &Error{Kind: KindWrongType}
	ErrConfinement    = &Error{Kind: KindConfinement}
	ErrIO             = &Error{Kind: KindIO}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func usageError(usage string) *Error {
	return newError(KindUsage, "usage: %s", usage)
}

// fsError classifies an OS error from acting on name.
func fsError(name string, err error) error {
	if err == nil {
		return nil
	}
	var shellErr *Error
	if errors.As(err, &shellErr) {
		return err
	}
	reason := err
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		reason = pathErr.Err
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		reason = linkErr.Err
	}

	kind := KindIO
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(err, syscall.ENOTDIR), errors.Is(err, syscall.EISDIR):
		kind = KindWrongType
	case errors.Is(err, sandbox.ErrOutsideRoot):
		kind = KindConfinement
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf("%s: %v", name, reason), Err: err}
}
