package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"BOXSH_CONFIG", "BOXSH_ROOT", "BOXSH_LOG_LEVEL", "BOXSH_LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunExecutesLinesInOrder(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	out, err := execute(t, "", "--root", root, "run", "--", "mkdir a", "cd a", "touch f.txt", "ls", "pwd")
	require.NoError(t, err)
	canonical, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, "f.txt\n"+filepath.Join(canonical, "a")+"\n", out)
	assert.FileExists(t, filepath.Join(root, "a", "f.txt"))
}

func TestRunReportsFailure(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	out, err := execute(t, "", "--root", root, "run", "--", "cat missing.txt", "echo still here")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errCommandFailed))
	assert.Equal(t, "error: no such file: missing.txt\nstill here\n", out)
}

func TestRunStopsAtExit(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	out, err := execute(t, "", "--root", root, "run", "--", "echo one", "exit", "echo two")
	require.NoError(t, err)
	assert.Equal(t, "one\n", out)
}

func TestRunConfirmsFromStdin(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "d", "e"), 0o755))

	out, err := execute(t, "y\n", "--root", root, "run", "--", "rm -r d")
	require.NoError(t, err)
	assert.Contains(t, out, "rm -r /d [y/N]: ")
	assert.NoDirExists(t, filepath.Join(root, "d"))
}

func TestREPLFromPipedInput(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	out, err := execute(t, "echo hi\nmkdir x\nexit\necho never\n", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
	assert.DirExists(t, filepath.Join(root, "x"))
	assert.FileExists(t, filepath.Join(root, ".boxsh_history"))
}

func TestConfigFileSetsRoot(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("root: "+root+"\nsandbox:\n  escape: reject\n"), 0o644))

	out, err := execute(t, "", "--config", cfgPath, "run", "--", "cd ../..")
	require.Error(t, err)
	assert.Equal(t, "error: access outside sandbox root is blocked: ../..\n", out)
}

func TestMissingExplicitConfig(t *testing.T) {
	isolate(t)
	_, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "run", "--", "pwd")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errCommandFailed))
}

func TestDoctorPrintsEffectiveConfig(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	out, err := execute(t, "", "--root", root, "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "root: "+root)
	assert.Contains(t, out, "escape: clamp")
	assert.Contains(t, out, "exec timeout: none")
	assert.Contains(t, out, "gateway: 127.0.0.1:7070")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")
}

func TestConfigBlocklistReachesHostTools(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("exec:\n  blocklist: [ps, tasklist]\n"), 0o644))

	out, err := execute(t, "", "--config", cfgPath, "--root", root, "run", "--", "ps")
	require.ErrorIs(t, err, errCommandFailed)
	assert.True(t, strings.HasPrefix(out, "error: ps failed: "), out)
	assert.Contains(t, out, "command blocked")
}
