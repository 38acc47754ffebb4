package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budgetvoice/internal/core"
	"budgetvoice/internal/ledger"
	"budgetvoice/internal/storage/memory"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newLedger(t *testing.T, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	opts = append([]ledger.Option{ledger.WithClock(clock)}, opts...)
	return ledger.Open(context.Background(), memory.New(nil), opts...)
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAddExpenseAssignsIDAndReducesBudget(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	if !l.Budget().Equal(amount("100")) {
		t.Fatalf("initial budget = %s", l.Budget())
	}

	a, err := l.AddExpense(ctx, core.Expense{Amount: amount("20"), Category: "food"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := l.AddExpense(ctx, core.Expense{Amount: amount("12.5"), Category: "rent"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if a.ID == b.ID || b.ID <= a.ID {
		t.Fatalf("ids must be unique and ascending: %d %d", a.ID, b.ID)
	}
	if !a.CreatedAt.Equal(fixedNow) || a.Date != core.NewDate(2026, 10, 17) {
		t.Fatalf("expected clock-derived timestamps, got %+v", a)
	}
	if !l.Budget().Equal(amount("67.5")) {
		t.Fatalf("budget = %s, want 67.5", l.Budget())
	}
}

func TestAddExpenseValidation(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	cases := []struct {
		draft core.Expense
		field string
	}{
		{core.Expense{Amount: decimal.Zero, Category: "food"}, core.FieldAmount},
		{core.Expense{Amount: amount("1"), Category: ""}, core.FieldCategory},
		{core.Expense{Amount: amount("1"), Category: "food", Billable: true}, core.FieldContact},
	}
	for _, tc := range cases {
		_, err := l.AddExpense(ctx, tc.draft)
		field, ok := core.ValidationField(err)
		if !ok || field != tc.field {
			t.Fatalf("expected %s validation error, got %v", tc.field, err)
		}
	}
	if len(l.ListExpenses()) != 0 {
		t.Fatalf("rejected drafts must not be stored")
	}
}

func TestUpdateExpenseKeepsIDAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	orig, _ := l.AddExpense(ctx, core.Expense{Amount: amount("20"), Category: "food"})

	changed := orig
	changed.Amount = amount("35")
	changed.Category = "groceries"
	changed.CreatedAt = time.Time{}
	if _, err := l.UpdateExpense(ctx, changed); err != nil {
		t.Fatalf("update: %v", err)
	}

	list := l.ListExpenses()
	if len(list) != 1 || list[0].ID != orig.ID {
		t.Fatalf("unexpected list %+v", list)
	}
	if !list[0].Amount.Equal(amount("35")) || list[0].Category != "groceries" {
		t.Fatalf("update not visible: %+v", list[0])
	}
	if !list[0].CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("createdAt changed: %v", list[0].CreatedAt)
	}
	if !l.Budget().Equal(amount("65")) {
		t.Fatalf("budget = %s", l.Budget())
	}

	_, err := l.UpdateExpense(ctx, core.Expense{ID: 99, Amount: amount("1"), Category: "x"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	e, _ := l.AddExpense(ctx, core.Expense{Amount: amount("20"), Category: "food"})

	if err := l.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(l.ListExpenses()) != 0 {
		t.Fatalf("expense still listed")
	}
	var nf *core.NotFoundError
	if err := l.DeleteExpense(ctx, e.ID); !errors.As(err, &nf) || nf.ID != e.ID {
		t.Fatalf("expected NotFoundError for %d, got %v", e.ID, err)
	}
	if !l.Budget().Equal(amount("100")) {
		t.Fatalf("budget not restored: %s", l.Budget())
	}
}

func TestCategoriesGrowCaseSensitive(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	l := ledger.Open(ctx, store, ledger.WithClock(clock))

	if got := l.Categories(); len(got) != 3 || got[0] != "Food" {
		t.Fatalf("expected defaults, got %v", got)
	}
	if _, err := l.AddExpense(ctx, core.Expense{Amount: amount("1"), Category: "food"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := l.AddExpense(ctx, core.Expense{Amount: amount("1"), Category: "Food"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	got := l.Categories()
	want := []string{"Food", "Transport", "Entertainment", "food"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	persisted, _ := store.LoadCategories(ctx)
	if len(persisted) != len(want) {
		t.Fatalf("category list not rewritten: %v", persisted)
	}

	// deleting never shrinks the registry
	for _, e := range l.ListExpenses() {
		_ = l.DeleteExpense(ctx, e.ID)
	}
	if len(l.Categories()) != len(want) {
		t.Fatalf("registry shrank: %v", l.Categories())
	}
}

func TestSetBaseAndReload(t *testing.T) {
	ctx := context.Background()
	store := memory.New(nil)
	l := ledger.Open(ctx, store, ledger.WithClock(clock))

	if _, err := l.AddExpense(ctx, core.Expense{Amount: amount("20"), Category: "food"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.SetBase(ctx, amount("500")); err != nil {
		t.Fatalf("set base: %v", err)
	}
	if !l.Budget().Equal(amount("480")) {
		t.Fatalf("budget = %s", l.Budget())
	}

	reopened := ledger.Open(ctx, store, ledger.WithDefaultBase(amount("100")))
	if !reopened.Base().Equal(amount("500")) || !reopened.Budget().Equal(amount("480")) {
		t.Fatalf("reloaded base=%s budget=%s", reopened.Base(), reopened.Budget())
	}
}

func TestRecent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	if len(l.Recent(3)) != 0 {
		t.Fatalf("expected none")
	}
	for _, c := range []string{"a", "b", "c", "d"} {
		if _, err := l.AddExpense(ctx, core.Expense{Amount: amount("1"), Category: c}); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	got := l.Recent(3)
	if len(got) != 3 || got[0].Category != "b" || got[2].Category != "d" {
		t.Fatalf("unexpected recent %+v", got)
	}
}

func TestListExpensesReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	_, _ = l.AddExpense(ctx, core.Expense{Amount: amount("1"), Category: "food"})
	snap := l.ListExpenses()
	snap[0].Category = "mutated"
	if l.ListExpenses()[0].Category != "food" {
		t.Fatalf("snapshot aliases ledger state")
	}
}

// failingStore wraps a memory store and fails selected operations.
type failingStore struct {
	*memory.Store
	failLoad   bool
	failInsert bool
	failUpdate bool
	failDelete bool
}

var errDisk = errors.New("disk on fire")

func (f *failingStore) LoadExpenses(ctx context.Context) ([]core.Expense, error) {
	if f.failLoad {
		return nil, errDisk
	}
	return f.Store.LoadExpenses(ctx)
}

func (f *failingStore) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if f.failInsert {
		return core.Expense{}, errDisk
	}
	return f.Store.InsertExpense(ctx, e)
}

func (f *failingStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	if f.failUpdate {
		return errDisk
	}
	return f.Store.UpdateExpense(ctx, e)
}

func (f *failingStore) DeleteExpense(ctx context.Context, id int64) error {
	if f.failDelete {
		return errDisk
	}
	return f.Store.DeleteExpense(ctx, id)
}

func TestFailedPersistLeavesMirrorUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.New(nil)}
	l := ledger.Open(ctx, store, ledger.WithClock(clock))
	kept, _ := l.AddExpense(ctx, core.Expense{Amount: amount("10"), Category: "food"})

	store.failInsert, store.failUpdate, store.failDelete = true, true, true

	if _, err := l.AddExpense(ctx, core.Expense{Amount: amount("5"), Category: "travel"}); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error, got %v", err)
	}
	changed := kept
	changed.Amount = amount("99")
	if _, err := l.UpdateExpense(ctx, changed); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if err := l.DeleteExpense(ctx, kept.ID); !errors.Is(err, errDisk) {
		t.Fatalf("expected storage error, got %v", err)
	}

	list := l.ListExpenses()
	if len(list) != 1 || !list[0].Amount.Equal(amount("10")) {
		t.Fatalf("mirror changed after failed writes: %+v", list)
	}
	for _, c := range l.Categories() {
		if c == "travel" {
			t.Fatalf("category registered for an unsaved expense")
		}
	}
	if !l.Budget().Equal(amount("90")) {
		t.Fatalf("budget = %s", l.Budget())
	}
}

func TestLoadFailureDegradesToEmptyLedger(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: memory.New(nil), failLoad: true}
	l := ledger.Open(ctx, store)

	if !errors.Is(l.Warning(), errDisk) {
		t.Fatalf("expected surfaced warning, got %v", l.Warning())
	}
	if len(l.ListExpenses()) != 0 || !l.Budget().Equal(core.DefaultBase) || len(l.Categories()) != 3 {
		t.Fatalf("expected empty default ledger")
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	kinds  []core.EventKind
	failOn core.EventKind
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, kind core.EventKind, _ core.Expense) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, kind)
	if kind == p.failOn {
		return errors.New("broker down")
	}
	return nil
}

func TestMutationsPublishEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{failOn: core.EventUpdated}
	l := newLedger(t, ledger.WithPublisher(pub))

	e, err := l.AddExpense(ctx, core.Expense{Amount: amount("3"), Category: "food"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	e.Amount = amount("4")
	if _, err := l.UpdateExpense(ctx, e); err != nil {
		t.Fatalf("publish failure must not fail the update: %v", err)
	}
	if err := l.DeleteExpense(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, _ = l.AddExpense(ctx, core.Expense{Amount: decimal.Zero, Category: "food"})

	want := []core.EventKind{core.EventCreated, core.EventUpdated, core.EventDeleted}
	if len(pub.kinds) != len(want) {
		t.Fatalf("events = %v, want %v", pub.kinds, want)
	}
	for i := range want {
		if pub.kinds[i] != want[i] {
			t.Fatalf("events = %v, want %v", pub.kinds, want)
		}
	}
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	_, _ = l.AddExpense(ctx, core.Expense{Amount: amount("10"), Category: "food", Date: core.NewDate(2026, 10, 1)})
	_, _ = l.AddExpense(ctx, core.Expense{Amount: amount("4"), Category: "food", Date: core.NewDate(2026, 9, 1)})

	ov := l.Overview(2026, 10)
	if !ov.Total.Equal(amount("10")) || len(ov.ByCategory) != 1 {
		t.Fatalf("unexpected overview %+v", ov)
	}
}

func TestStartupWarningIsReported(t *testing.T) {
	fallback := errors.New("open sqlite store: permission denied")
	l := newLedger(t, ledger.WithStartupWarning(fallback))
	if !errors.Is(l.Warning(), fallback) {
		t.Fatalf("warning = %v, want %v", l.Warning(), fallback)
	}
	if !l.Budget().Equal(amount("100")) {
		t.Fatalf("budget = %s", l.Budget())
	}
}
