package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnvFromDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "BOXSH_TEST_FOO=bar\n# comment\nexport BOXSH_TEST_BAZ=\"qux\"\nnot a pair\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("BOXSH_TEST_FOO", "")
	t.Setenv("BOXSH_TEST_BAZ", "")
	_ = os.Unsetenv("BOXSH_TEST_FOO")
	_ = os.Unsetenv("BOXSH_TEST_BAZ")

	if err := LoadDotEnvFromDir(dir); err != nil {
		t.Fatalf("LoadDotEnvFromDir: %v", err)
	}
	if got := os.Getenv("BOXSH_TEST_FOO"); got != "bar" {
		t.Fatalf("expected bar, got %q", got)
	}
	if got := os.Getenv("BOXSH_TEST_BAZ"); got != "qux" {
		t.Fatalf("expected qux, got %q", got)
	}
}

func TestLoadDotEnvDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BOXSH_TEST_KEEP=new\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("BOXSH_TEST_KEEP", "existing")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("BOXSH_TEST_KEEP"); got != "existing" {
		t.Fatalf("expected existing value preserved, got %q", got)
	}
}

func TestLoadDotEnvMissing(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}
