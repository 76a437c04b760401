package system

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sameehj/boxsh/pkg/exec"
)

const meminfoLines = 5

// Runner runs host tools. *exec.SafeExecutor satisfies it.
type Runner interface {
	RunContext(ctx context.Context, cmd string, args []string) (*exec.Result, error)
}

// Processes returns the host process table.
func Processes(ctx context.Context, runner Runner) (string, error) {
	if runtime.GOOS == "windows" {
		return runTool(ctx, runner, "tasklist")
	}
	return runTool(ctx, runner, "ps", "-e", "-o", "pid,comm,pcpu,pmem")
}

// Memory returns a short memory report from the best source the host has.
func Memory(ctx context.Context, runner Runner) ([]string, error) {
	switch runtime.GOOS {
	case "linux":
		lines, err := readMeminfo("/proc/meminfo", meminfoLines)
		if err == nil {
			return lines, nil
		}
		if fallback, ferr := sysinfoMemory(); ferr == nil {
			return fallback, nil
		}
		return nil, err
	case "darwin":
		out, err := runTool(ctx, runner, "vm_stat")
		if err != nil {
			return nil, err
		}
		return splitLines(out), nil
	case "windows":
		out, err := runTool(ctx, runner, "wmic", "OS", "get", "FreePhysicalMemory,TotalVisibleMemorySize", "/Value")
		if err != nil {
			return nil, err
		}
		return splitLines(out), nil
	}
	return nil, ErrUnavailable
}

func readMeminfo(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	for len(lines) < n && scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: empty", path)
	}
	return lines, nil
}

func runTool(ctx context.Context, runner Runner, name string, args ...string) (string, error) {
	if runner == nil {
		runner = &exec.SafeExecutor{}
	}
	res, err := runner.RunContext(ctx, name, args)
	if err != nil && !errors.Is(err, exec.ErrTruncated) {
		return "", err
	}
	if res.Code != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", res.Code)
		}
		return "", fmt.Errorf("%s: %s", name, msg)
	}
	return res.Stdout, nil
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimRight(line, " \t"); line != "" {
			out = append(out, line)
		}
	}
	return out
}
