package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"budgetvoice/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_ExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	created := time.Date(2026, 10, 17, 9, 30, 0, 123, time.UTC)

	first, err := repo.InsertExpense(ctx, core.Expense{
		Amount:    decimal.RequireFromString("20.50"),
		Category:  "food",
		Date:      core.NewDate(2026, 10, 17),
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := repo.InsertExpense(ctx, core.Expense{
		Amount:     decimal.NewFromInt(300),
		Category:   "rent",
		Date:       core.NewDate(2026, 10, 1),
		Billable:   true,
		Contact:    "Landlord",
		DueDate:    core.NewDate(2026, 10, 31),
		ReminderOn: true,
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("ids must ascend: %d then %d", first.ID, second.ID)
	}

	got, err := repo.LoadExpenses(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(got))
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("20.5")) || got[0].Category != "food" {
		t.Fatalf("unexpected first row %+v", got[0])
	}
	if !got[0].CreatedAt.Equal(created) {
		t.Fatalf("created_at lost precision: %v", got[0].CreatedAt)
	}
	if !got[0].DueDate.IsEmpty() {
		t.Fatalf("expected no due date, got %v", got[0].DueDate)
	}
	if !got[1].Billable || got[1].Contact != "Landlord" || got[1].DueDate != core.NewDate(2026, 10, 31) || !got[1].ReminderOn {
		t.Fatalf("billable fields not round-tripped: %+v", got[1])
	}

	first.Amount = decimal.NewFromInt(25)
	first.Category = "groceries"
	if err := repo.UpdateExpense(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.LoadExpenses(ctx)
	if !got[0].Amount.Equal(decimal.NewFromInt(25)) || got[0].Category != "groceries" || got[0].ID != first.ID {
		t.Fatalf("update not applied: %+v", got[0])
	}

	if err := repo.DeleteExpense(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = repo.DeleteExpense(ctx, first.ID)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
	if err := repo.UpdateExpense(ctx, core.Expense{ID: 999, Amount: decimal.NewFromInt(1), Category: "x", Date: core.NewDate(2026, 1, 1)}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update of unknown id should be not found, got %v", err)
	}

	third, err := repo.InsertExpense(ctx, core.Expense{Amount: decimal.NewFromInt(1), Category: "misc", Date: core.NewDate(2026, 1, 1), CreatedAt: created})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if third.ID <= second.ID {
		t.Fatalf("deleted ids must not be reused: got %d after %d", third.ID, second.ID)
	}
}

func TestSQLiteRepository_Categories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	names, err := repo.LoadCategories(ctx)
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty list, got %v %v", names, err)
	}
	if err := repo.SaveCategories(ctx, []string{"Food", "Transport", "food"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveCategories(ctx, []string{"Food", "Transport", "food", "rent"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	names, err = repo.LoadCategories(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"Food", "Transport", "food", "rent"}
	if len(names) != len(want) {
		t.Fatalf("got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestSQLiteRepository_Base(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.LoadBase(ctx); err != nil || ok {
		t.Fatalf("expected no base yet, ok=%v err=%v", ok, err)
	}
	if err := repo.SaveBase(ctx, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.SaveBase(ctx, decimal.RequireFromString("250.75")); err != nil {
		t.Fatalf("save: %v", err)
	}
	base, ok, err := repo.LoadBase(ctx)
	if err != nil || !ok || !base.Equal(decimal.RequireFromString("250.75")) {
		t.Fatalf("got %s ok=%v err=%v", base, ok, err)
	}
}

func TestSQLiteRepository_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.InsertExpense(ctx, core.Expense{Amount: decimal.NewFromInt(3), Category: "food", Date: core.NewDate(2026, 2, 2), CreatedAt: time.Now()}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	got, err := repo.LoadExpenses(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected persisted expense, got %v %v", got, err)
	}
}
