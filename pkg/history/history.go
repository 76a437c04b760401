package history

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultLimit bounds the number of entries kept in memory and on disk.
const DefaultLimit = 500

type Entry struct {
	Index int
	Line  string
}

// History is a bounded list of input lines, optionally backed by a plain
// text file with one entry per line.
type History struct {
	mu     sync.Mutex
	path   string
	limit  int
	lines  []string
	offset int
}

// New returns an in-memory history.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Load reads path if it exists. An empty path disables persistence.
func Load(path string, limit int) (*History, error) {
	h := New(limit)
	h.path = path
	if path == "" {
		return h, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return h, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		h.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *History) Path() string {
	return h.path
}

// Add appends line. Blank lines and embedded newlines are not stored.
func (h *History) Add(line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" || strings.ContainsAny(line, "\r\n") {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.add(line)
}

func (h *History) add(line string) {
	h.lines = append(h.lines, line)
	if over := len(h.lines) - h.limit; over > 0 {
		h.lines = append([]string(nil), h.lines[over:]...)
		h.offset += over
	}
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.lines)
}

// Last returns up to n of the newest entries, oldest first. Indexes are
// 1-based and keep counting across evictions.
func (h *History) Last(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 {
		return nil
	}
	start := len(h.lines) - n
	if start < 0 {
		start = 0
	}
	out := make([]Entry, 0, len(h.lines)-start)
	for i := start; i < len(h.lines); i++ {
		out = append(out, Entry{Index: h.offset + i + 1, Line: h.lines[i]})
	}
	return out
}

// Save writes the entries to the backing file. It is a no-op without one.
func (h *History) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	for _, line := range h.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, h.path)
}
