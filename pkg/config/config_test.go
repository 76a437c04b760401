package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sameehj/boxsh/pkg/sandbox"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BOXSH_CONFIG", "BOXSH_ROOT", "BOXSH_LOG_LEVEL", "BOXSH_LOG_FORMAT"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	t.Setenv("HOME", t.TempDir())
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.History.File != DefaultHistoryFile || cfg.Gateway.Address != DefaultGatewayAddress {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.EscapePolicy() != sandbox.EscapeClamp {
		t.Fatalf("expected clamp policy")
	}
}

func TestLoadConfigExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `root: /srv/box
logLevel: debug
history:
  file: ""
  limit: 20
sandbox:
  escape: reject
exec:
  timeout: 5s
  maxOutput: 4096
  blocklist: [ps]
gateway:
  address: 127.0.0.1:9000
  maxSessions: 4
  allowedAddrs: ["127.0.0.1"]
  watch: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOXSH_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Root != "/srv/box" || cfg.LogLevel != "warn" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.History.File != "" || cfg.HistoryPath("/srv/box") != "" {
		t.Fatalf("expected history persistence disabled")
	}
	if cfg.EscapePolicy() != sandbox.EscapeReject {
		t.Fatalf("expected reject policy")
	}
	exec := cfg.Executor()
	if exec.Timeout != 5*time.Second || exec.MaxOutput != 4096 || len(exec.Blocklist) != 1 || exec.Blocklist[0] != "ps" {
		t.Fatalf("unexpected executor: %+v", exec)
	}
	if !cfg.Gateway.Watch || cfg.Gateway.MaxSessions != 4 || len(cfg.Gateway.AllowedAddrs) != 1 {
		t.Fatalf("unexpected gateway config: %+v", cfg.Gateway)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	clearEnv(t)
	for _, content := range []string{
		"sandbox:\n  escape: ignore\n",
		"exec:\n  timeout: soon\n",
		"history:\n  limit: -1\n",
		"gateway:\n  address: \"\"\n",
	} {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected validation error for %q", content)
		}
	}
}

func TestRootDirPrecedence(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	wd, _ := os.Getwd()
	if got, _ := cfg.RootDir(""); got != wd {
		t.Fatalf("expected cwd %q, got %q", wd, got)
	}
	cfg.Root = "/from/config"
	if got, _ := cfg.RootDir(""); got != "/from/config" {
		t.Fatalf("expected config root, got %q", got)
	}
	if got, _ := cfg.RootDir("/from/flag"); got != "/from/flag" {
		t.Fatalf("expected flag root, got %q", got)
	}

	t.Setenv("BOXSH_ROOT", "/from/env")
	loaded, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := loaded.RootDir(""); got != "/from/env" {
		t.Fatalf("expected env root, got %q", got)
	}
}

func TestHistoryPath(t *testing.T) {
	cfg := Default()
	if got := cfg.HistoryPath("/box"); got != filepath.Join("/box", DefaultHistoryFile) {
		t.Fatalf("unexpected history path: %q", got)
	}
	cfg.History.File = "/var/lib/boxsh/history"
	if got := cfg.HistoryPath("/box"); got != "/var/lib/boxsh/history" {
		t.Fatalf("unexpected absolute history path: %q", got)
	}
}
