// Package history keeps the list of previously entered commands and lets a single
// read navigate through it.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 500

// History is an ordered list of entries, oldest first.
type History struct {
	mu      sync.RWMutex
	entries []string
	limit   int
}

// New creates a History holding at most limit entries.
// A non-positive limit selects DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{
		entries: make([]string, 0),
		limit:   limit,
	}
}

// Add appends an entry. Empty entries are ignored.
func (h *History) Add(entry string) {
	if entry == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	h.trim()
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Cursor returns a navigator positioned before the newest entry.
// The cursor works on a snapshot; entries added afterwards are not visible to it.
func (h *History) Cursor() *Cursor {
	return &Cursor{entries: h.Entries(), index: -1}
}

// Load appends the entries stored in path. A missing file is not an error.
func (h *History) Load(path string) error {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer func() { _ = file.Close() }()

	h.mu.Lock()
	defer h.mu.Unlock()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		h.entries = append(h.entries, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	h.trim()
	return nil
}

// Save writes all entries to path, one per line, creating the parent directory.
func (h *History) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	var b strings.Builder
	for _, entry := range h.Entries() {
		b.WriteString(entry)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// trim drops the oldest entries beyond the limit. Callers hold the lock.
func (h *History) trim() {
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]string(nil), h.entries[over:]...)
	}
}

// Cursor walks a history snapshot from newest to oldest and back.
type Cursor struct {
	entries []string
	// index counts steps back from the newest entry; -1 means not navigating.
	index int
}

// Prev moves one entry further back. It reports false when already at the oldest
// entry or when the history is empty.
func (c *Cursor) Prev() (string, bool) {
	if c.index == len(c.entries)-1 {
		return "", false
	}
	c.index++
	return c.entries[len(c.entries)-c.index-1], true
}

// Next moves one entry forward. Stepping past the newest entry yields the blank
// line. It reports false when not navigating.
func (c *Cursor) Next() (string, bool) {
	switch c.index {
	case -1:
		return "", false
	case 0:
		c.index--
		return "", true
	}
	c.index--
	return c.entries[len(c.entries)-c.index-1], true
}
