package memory

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	"ledgerbook/internal/core"
	"ledgerbook/internal/ledger"
)

// Store is a process-local ledger for tests and throwaway demos.
type Store struct {
	mu    sync.Mutex
	items []core.Entry
}

var _ ledger.Ledger = (*Store)(nil)

func New(entries ...core.Entry) *Store {
	return &Store{items: append([]core.Entry(nil), entries...)}
}

// NewFromFile seeds the store from a text ledger file if present.
// Unreadable or malformed lines are skipped.
func NewFromFile(path string) *Store {
	s := New()
	for _, line := range readLines(path) {
		parts := strings.Split(line, ",")
		if len(parts) != 4 {
			continue
		}
		e, err := core.NewEntry(parts[0], parts[1], parts[2], parts[3])
		if err != nil {
			continue
		}
		s.items = append(s.items, e)
	}
	return s
}

// Append stores the entry at the end.
func (s *Store) Append(_ context.Context, e core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return nil
}

// ReadAll returns a copy of the stored entries.
func (s *Store) ReadAll(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Entry(nil), s.items...), nil
}

// RewriteAll replaces the stored entries with a copy of entries.
func (s *Store) RewriteAll(_ context.Context, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]core.Entry(nil), entries...)
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
