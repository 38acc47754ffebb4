package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"budgetvoice/internal/core"

	"github.com/shopspring/decimal"
)

func TestMemoryStoreInsertUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	a, err := s.InsertExpense(ctx, core.Expense{Amount: decimal.NewFromInt(1), Category: "food"})
	if err != nil || a.ID != 1 {
		t.Fatalf("unexpected insert: id=%d err=%v", a.ID, err)
	}
	b, _ := s.InsertExpense(ctx, core.Expense{Amount: decimal.NewFromInt(2), Category: "rent"})
	if b.ID != 2 {
		t.Fatalf("expected id 2, got %d", b.ID)
	}

	a.Category = "groceries"
	if err := s.UpdateExpense(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.DeleteExpense(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteExpense(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.UpdateExpense(ctx, core.Expense{ID: 42}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	c, _ := s.InsertExpense(ctx, core.Expense{Amount: decimal.NewFromInt(3), Category: "misc"})
	if c.ID != 3 {
		t.Fatalf("ids must not be reused, got %d", c.ID)
	}

	items, _ := s.LoadExpenses(ctx)
	if len(items) != 2 || items[0].Category != "groceries" || items[1].ID != 3 {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	cats, _ := s.LoadCategories(context.Background())
	if len(cats) != 0 {
		t.Fatalf("expected no seed when file missing, got %v", cats)
	}

	content := "# header\nFood\nRent\nFood\nfood\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s = NewFromFiles(dir)
	cats, _ = s.LoadCategories(context.Background())
	want := []string{"Food", "Rent", "food"}
	if len(cats) != len(want) {
		t.Fatalf("unexpected cats: %v", cats)
	}
	for i := range want {
		if cats[i] != want[i] {
			t.Fatalf("unexpected cats: %v", cats)
		}
	}
}

func TestMemoryStoreBase(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	if _, ok, _ := s.LoadBase(ctx); ok {
		t.Fatalf("expected no base")
	}
	_ = s.SaveBase(ctx, decimal.NewFromInt(50))
	base, ok, _ := s.LoadBase(ctx)
	if !ok || !base.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("got %s %v", base, ok)
	}
}
