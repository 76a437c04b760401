package history

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := New(3)
	for _, line := range []string{"a", "b", "", "c", "d"} {
		h.Add(line)
	}
	if h.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", h.Len())
	}
	last := h.Last(10)
	if len(last) != 3 || last[0].Line != "b" || last[0].Index != 2 || last[2].Line != "d" || last[2].Index != 4 {
		t.Fatalf("unexpected entries: %+v", last)
	}
	if got := h.Last(1); len(got) != 1 || got[0].Line != "d" {
		t.Fatalf("unexpected last entry: %+v", got)
	}
	if got := h.Last(0); got != nil {
		t.Fatalf("expected no entries, got %+v", got)
	}
}

func TestHistorySaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".boxsh_history")

	h, err := Load(path, 10)
	if err != nil {
		t.Fatalf("load missing file: %v", err)
	}
	h.Add("mkdir demo")
	h.Add("cd demo")
	if err := h.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "mkdir demo\ncd demo\n" {
		t.Fatalf("unexpected file content: %q", data)
	}

	reloaded, err := Load(path, 10)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Len() != 2 || reloaded.Last(1)[0].Line != "cd demo" {
		t.Fatalf("unexpected reloaded history: %+v", reloaded.Last(10))
	}
}

func TestHistoryWithoutFile(t *testing.T) {
	h, err := Load("", 0)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	h.Add("pwd")
	if err := h.Save(); err != nil {
		t.Fatalf("save without path: %v", err)
	}
}
