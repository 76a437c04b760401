package terminal

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sameehj/boxsh/pkg/shell"
)

func newREPL(t *testing.T, input string) (*REPL, *bytes.Buffer, *shell.Session) {
	t.Helper()
	in := bufio.NewReader(strings.NewReader(input))
	var out bytes.Buffer
	sess, err := shell.New(filepath.Join(t.TempDir(), "sandbox"), shell.Options{
		Confirm: shell.NewLineConfirmer(in, &out),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return New(sess, in, &out), &out, sess
}

func TestREPLBatch(t *testing.T) {
	r, out, sess := newREPL(t, "echo hi\nmkdir d\ncd d\npwd\nbogus\nexit\necho never\n")
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "hi\n" + filepath.Join(sess.Root(), "d") + "\nerror: unknown command: bogus. Try 'help'.\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", out.String(), want)
	}
}

func TestREPLInteractive(t *testing.T) {
	r, out, _ := newREPL(t, "mkdir a\ncd a\n")
	r.SetInteractive(true)
	r.SetBanner("welcome")
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "welcome\nboxsh:/$ boxsh:/$ boxsh:/a$ \nexit\n"
	if out.String() != want {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestREPLConfirmSharesInput(t *testing.T) {
	r, out, sess := newREPL(t, "mkdir gone\nrm -r gone\ny\nls\n")
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sess.Root(), "gone")); !os.IsNotExist(err) {
		t.Fatalf("expected directory removed, stat err=%v", err)
	}
	if out.String() != "rm -r /gone [y/N]: " {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestREPLLastLineWithoutNewline(t *testing.T) {
	r, out, _ := newREPL(t, "echo tail")
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.String() != "tail\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestREPLStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	in := bufio.NewReader(pr)
	var out bytes.Buffer
	sess, err := shell.New(filepath.Join(t.TempDir(), "sandbox"), shell.Options{})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	r := New(sess, in, &out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}
