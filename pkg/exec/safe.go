package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const waitDelay = 500 * time.Millisecond

// ErrTruncated is returned alongside a Result whose output hit MaxOutput.
var ErrTruncated = errors.New("output truncated")

type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// SafeExecutor runs host tools with an optional deadline and output cap.
// A zero Timeout runs to completion.
type SafeExecutor struct {
	Timeout   time.Duration
	MaxOutput int
	// Blocklist names tools that may never run, by path or base name.
	Blocklist []string
}

// RunContext runs cmd with args. With no args, cmd is passed to the host shell.
// A non-zero exit status is reported in Result.Code, not as an error.
func (e *SafeExecutor) RunContext(ctx context.Context, cmd string, args []string) (*Result, error) {
	if cmd == "" {
		return nil, errors.New("command is required")
	}
	if e.isBlocked(cmd) {
		return nil, fmt.Errorf("command blocked: %s", cmd)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	var command *exec.Cmd
	if len(args) == 0 {
		shell := ShellCommand(cmd)
		command = exec.CommandContext(ctx, shell.Path, shell.Args[1:]...)
	} else {
		command = exec.CommandContext(ctx, cmd, args...)
	}

	stdoutBuf := &limitedBuffer{limit: e.MaxOutput}
	stderrBuf := &limitedBuffer{limit: e.MaxOutput}

	command.Stdout = stdoutBuf
	command.Stderr = stderrBuf
	// Children of a killed shell may hold the pipes open.
	command.WaitDelay = waitDelay

	err := command.Run()
	exitCode := 0
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", cmd, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, err
		}
	}

	result := &Result{Stdout: stdoutBuf.String(), Stderr: stderrBuf.String(), Code: exitCode}
	if stdoutBuf.truncated || stderrBuf.truncated {
		return result, ErrTruncated
	}
	return result, nil
}

func ShellCommand(command string) *exec.Cmd {
	switch runtime.GOOS {
	case "windows":
		return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", command)
	default:
		return exec.Command("sh", "-c", command)
	}
}

func (e *SafeExecutor) isBlocked(cmd string) bool {
	if len(e.Blocklist) == 0 {
		return false
	}
	base := filepath.Base(cmd)
	for _, blocked := range e.Blocklist {
		if strings.EqualFold(blocked, cmd) || strings.EqualFold(blocked, base) {
			return true
		}
	}
	return false
}

type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	if l.limit <= 0 {
		return l.buf.Write(p)
	}
	remaining := l.limit - l.buf.Len()
	if remaining <= 0 {
		l.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		l.truncated = true
		_, _ = l.buf.Write(p[:remaining])
		return len(p), nil
	}
	return l.buf.Write(p)
}

func (l *limitedBuffer) String() string {
	return l.buf.String()
}

var _ io.Writer = (*limitedBuffer)(nil)
