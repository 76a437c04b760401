package exec

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestSafeExecutorBlocklist(t *testing.T) {
	exec := &SafeExecutor{Blocklist: []string{"ps"}}
	_, err := exec.RunContext(context.Background(), "/bin/ps", []string{"-e"})
	if err == nil {
		t.Fatalf("expected blocklist error")
	}
	if !strings.Contains(strings.ToLower(err.Error()), "blocked") {
		t.Fatalf("expected blocked error, got %v", err)
	}
}

func TestSafeExecutorTimeout(t *testing.T) {
	exec := &SafeExecutor{Timeout: 50 * time.Millisecond}
	cmd := "sleep 1"
	if runtime.GOOS == "windows" {
		cmd = "Start-Sleep -Seconds 1"
	}
	start := time.Now()
	_, err := exec.RunContext(context.Background(), cmd, nil)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("timeout did not trigger quickly")
	}
}

func TestSafeExecutorCancelledContext(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh sleep")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &SafeExecutor{}
	if _, err := exec.RunContext(ctx, "sleep", []string{"1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSafeExecutorOutputTruncation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("output truncation test uses sh printf")
	}
	exec := &SafeExecutor{MaxOutput: 10}
	res, err := exec.RunContext(context.Background(), "printf '123456789012345'", nil)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if len(res.Stdout) != 10 {
		t.Fatalf("expected truncated stdout length 10, got %d", len(res.Stdout))
	}
}

func TestSafeExecutorExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh exit")
	}
	exec := &SafeExecutor{}
	res, err := exec.RunContext(context.Background(), "exit 3", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Code != 3 {
		t.Fatalf("expected exit code 3, got %d", res.Code)
	}
}

func TestSafeExecutorSuccess(t *testing.T) {
	exec := &SafeExecutor{Timeout: 2 * time.Second}
	res, err := exec.RunContext(context.Background(), "echo hello", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Stdout, "hello") {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
}
