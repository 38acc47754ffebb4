// Package memory is a process-local ledger store. It backs tests, the
// DATA_BACKEND=memory mode and the degraded mode used when SQLite cannot be
// opened.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"budgetvoice/internal/core"
	"budgetvoice/internal/ledger"

	"github.com/shopspring/decimal"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	nextID  int64
	items   []core.Expense
	cats    []string
	base    decimal.Decimal
	hasBase bool
}

func New(cats []string) *Store {
	return &Store{nextID: 1, cats: dedupe(cats)}
}

// NewFromFiles seeds the category list from base/seed_categories.txt, one
// name per line, '#' for comments. Missing files leave the list empty so the
// ledger applies its defaults.
func NewFromFiles(base string) *Store {
	return New(readLines(filepath.Join(base, "seed_categories.txt")))
}

func (s *Store) LoadExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	s.items = append(s.items, e)
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == e.ID {
			s.items[i] = e
			return nil
		}
	}
	return &core.NotFoundError{ID: e.ID}
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return &core.NotFoundError{ID: id}
}

func (s *Store) LoadCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

func (s *Store) SaveCategories(_ context.Context, names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cats = append([]string(nil), names...)
	return nil
}

func (s *Store) LoadBase(_ context.Context) (decimal.Decimal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base, s.hasBase, nil
}

func (s *Store) SaveBase(_ context.Context, base decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base, s.hasBase = base, true
	return nil
}

func (s *Store) Close() error { return nil }

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
	return dedupe(out)
}

// dedupe keeps first occurrences in input order. Comparison is exact.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
