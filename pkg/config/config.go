package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sameehj/boxsh/pkg/exec"
	"github.com/sameehj/boxsh/pkg/history"
	"github.com/sameehj/boxsh/pkg/sandbox"
)

const (
	DefaultHistoryFile    = ".boxsh_history"
	DefaultGatewayAddress = "127.0.0.1:7070"
)

// Config defines runtime settings for boxsh.
type Config struct {
	Root      string        `yaml:"root"`
	LogLevel  string        `yaml:"logLevel"`
	LogFormat string        `yaml:"logFormat"`
	History   HistoryConfig `yaml:"history"`
	Sandbox   SandboxConfig `yaml:"sandbox"`
	Exec      ExecConfig    `yaml:"exec"`
	Gateway   GatewayConfig `yaml:"gateway"`
}

type HistoryConfig struct {
	// File is relative to the sandbox root unless absolute. Empty disables
	// persistence.
	File  string `yaml:"file"`
	Limit int    `yaml:"limit"`
}

type SandboxConfig struct {
	Escape string `yaml:"escape"`
}

type ExecConfig struct {
	Timeout   string   `yaml:"timeout"`
	MaxOutput int      `yaml:"maxOutput"`
	Blocklist []string `yaml:"blocklist"`
}

type GatewayConfig struct {
	Address      string   `yaml:"address"`
	MaxSessions  int      `yaml:"maxSessions"`
	AllowedAddrs []string `yaml:"allowedAddrs"`
	Watch        bool     `yaml:"watch"`
}

func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		History: HistoryConfig{
			File:  DefaultHistoryFile,
			Limit: history.DefaultLimit,
		},
		Sandbox: SandboxConfig{Escape: string(sandbox.EscapeClamp)},
		Gateway: GatewayConfig{Address: DefaultGatewayAddress},
	}
}

// LoadConfig loads configuration from a YAML file and environment overrides.
// With an empty path the default location is tried and may be absent.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	explicit := path != "" || os.Getenv("BOXSH_CONFIG") != ""
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case !explicit && errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if root := os.Getenv("BOXSH_ROOT"); root != "" {
		cfg.Root = root
	}
	if logLevel := os.Getenv("BOXSH_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat := os.Getenv("BOXSH_LOG_FORMAT"); logFormat != "" {
		cfg.LogFormat = logFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := sandbox.ParsePolicy(c.Sandbox.Escape); err != nil {
		return fmt.Errorf("sandbox.escape: %w", err)
	}
	if _, err := c.ExecTimeout(); err != nil {
		return err
	}
	if c.Exec.MaxOutput < 0 {
		return fmt.Errorf("exec.maxOutput must not be negative")
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative")
	}
	if c.Gateway.MaxSessions < 0 {
		return fmt.Errorf("gateway.maxSessions must not be negative")
	}
	if strings.TrimSpace(c.Gateway.Address) == "" {
		return fmt.Errorf("gateway.address is required")
	}
	return nil
}

// EscapePolicy returns the validated sandbox escape policy.
func (c *Config) EscapePolicy() sandbox.EscapePolicy {
	policy, err := sandbox.ParsePolicy(c.Sandbox.Escape)
	if err != nil {
		return sandbox.EscapeClamp
	}
	return policy
}

// ExecTimeout parses exec.timeout. Empty means no timeout.
func (c *Config) ExecTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Exec.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Exec.Timeout)
	if err != nil {
		return 0, fmt.Errorf("exec.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("exec.timeout must not be negative")
	}
	return d, nil
}

// Executor builds the runner used for host tools.
func (c *Config) Executor() *exec.SafeExecutor {
	timeout, _ := c.ExecTimeout()
	return &exec.SafeExecutor{Timeout: timeout, MaxOutput: c.Exec.MaxOutput, Blocklist: c.Exec.Blocklist}
}

// RootDir picks the sandbox root: flag, then config (which already carries
// BOXSH_ROOT), then the process working directory.
func (c *Config) RootDir(flag string) (string, error) {
	root := flag
	if root == "" {
		root = c.Root
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}
	return filepath.Abs(expandHome(root))
}

// HistoryPath places the history file for a session rooted at root.
func (c *Config) HistoryPath(root string) string {
	file := expandHome(c.History.File)
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(root, file)
}

// DefaultConfigPath returns the default location for the CLI config file.
func DefaultConfigPath() string {
	if path := os.Getenv("BOXSH_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".boxsh", "config.yaml")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
