// Package ledger owns the expense records, the category vocabulary and the
// budget base. Every mutation is persisted before the in-memory mirror
// changes, so a failed write leaves the ledger exactly as it was.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budgetvoice/internal/core"
	"budgetvoice/internal/log"

	"github.com/shopspring/decimal"
)

type Option func(*Ledger)

// WithPublisher sends a best-effort event after each successful mutation.
func WithPublisher(p EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.logger = logger.WithComponent(log.ComponentLedger) }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithDefaultBase is used when the store has no saved base.
func WithDefaultBase(base decimal.Decimal) Option {
	return func(l *Ledger) { l.defaultBase = base }
}

// WithStartupWarning reports a degradation that happened before Open, such
// as a store fallback. A load failure replaces it.
func WithStartupWarning(err error) Option {
	return func(l *Ledger) { l.warning = err }
}

type Ledger struct {
	mu          sync.RWMutex
	store       Store
	expenses    []core.Expense
	categories  *core.CategoryRegistry
	base        decimal.Decimal
	defaultBase decimal.Decimal
	warning     error

	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

// Open loads the ledger from store. A load failure does not fail Open: the
// ledger starts empty and the failure is reported by Warning.
func Open(ctx context.Context, store Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       store,
		defaultBase: core.DefaultBase,
		logger:      log.Default().WithComponent(log.ComponentLedger),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.load(ctx); err != nil {
		l.warning = err
		l.expenses = nil
		l.categories = core.NewCategoryRegistry(core.DefaultCategories...)
		l.base = l.defaultBase
		l.logger.WarnContext(ctx, "Ledger storage unavailable, starting empty",
			log.FieldOperation, log.OpLoad,
			log.FieldError, err)
	}
	return l
}

func (l *Ledger) load(ctx context.Context) error {
	expenses, err := l.store.LoadExpenses(ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	names, err := l.store.LoadCategories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	base, ok, err := l.store.LoadBase(ctx)
	if err != nil {
		return fmt.Errorf("load budget base: %w", err)
	}
	if !ok {
		base = l.defaultBase
	}
	if len(names) == 0 {
		names = core.DefaultCategories
	}

	registry := core.NewCategoryRegistry(names...)
	for _, e := range expenses {
		registry.Add(e.Category)
	}

	l.expenses = expenses
	l.categories = registry
	l.base = base
	l.logger.InfoContext(ctx, "Ledger loaded",
		"expenses", len(expenses),
		"categories", registry.Len(),
		log.FieldBudget, core.CurrentBudget(base, expenses).String())
	return nil
}

// Warning returns the load failure the ledger degraded from, if any.
func (l *Ledger) Warning() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.warning
}

// AddExpense validates draft, persists it and returns the stored record with
// its id and creation time.
func (l *Ledger) AddExpense(ctx context.Context, draft core.Expense) (core.Expense, error) {
	now := l.now()
	e := draft.Normalize(now)
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e.ID = 0
	e.CreatedAt = now

	l.mu.Lock()
	stored, err := l.store.InsertExpense(ctx, e)
	if err != nil {
		l.mu.Unlock()
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	l.expenses = append(l.expenses, stored)
	l.trackCategory(ctx, stored.Category)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Expense added",
		log.NewFields().WithExpense(stored.ID, stored.Amount, stored.Category).WithOperation(log.OpCreate).ToSlice()...)
	l.publish(ctx, core.EventCreated, stored)
	return stored, nil
}

// UpdateExpense replaces the record with e.ID. CreatedAt is kept from the
// existing record.
func (l *Ledger) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e = e.Normalize(l.now())
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	l.mu.Lock()
	idx := l.indexOf(e.ID)
	if idx < 0 {
		l.mu.Unlock()
		return core.Expense{}, &core.NotFoundError{ID: e.ID}
	}
	e.CreatedAt = l.expenses[idx].CreatedAt
	if err := l.store.UpdateExpense(ctx, e); err != nil {
		l.mu.Unlock()
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	l.expenses[idx] = e
	l.trackCategory(ctx, e.Category)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Expense updated",
		log.NewFields().WithExpense(e.ID, e.Amount, e.Category).WithOperation(log.OpUpdate).ToSlice()...)
	l.publish(ctx, core.EventUpdated, e)
	return e, nil
}

func (l *Ledger) DeleteExpense(ctx context.Context, id int64) error {
	l.mu.Lock()
	idx := l.indexOf(id)
	if idx < 0 {
		l.mu.Unlock()
		return &core.NotFoundError{ID: id}
	}
	if err := l.store.DeleteExpense(ctx, id); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	removed := l.expenses[idx]
	l.expenses = append(l.expenses[:idx:idx], l.expenses[idx+1:]...)
	l.mu.Unlock()

	l.logger.InfoContext(ctx, "Expense deleted", log.FieldExpenseID, id, log.FieldOperation, log.OpDelete)
	l.publish(ctx, core.EventDeleted, removed)
	return nil
}

// ListExpenses returns a snapshot in insertion order.
func (l *Ledger) ListExpenses() []core.Expense {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.Expense(nil), l.expenses...)
}

func (l *Ledger) Get(id int64) (core.Expense, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.indexOf(id)
	if idx < 0 {
		return core.Expense{}, &core.NotFoundError{ID: id}
	}
	return l.expenses[idx], nil
}

// Recent returns up to n most recently added expenses, oldest first.
func (l *Ledger) Recent(n int) []core.Expense {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := len(l.expenses) - n
	if start < 0 {
		start = 0
	}
	return append([]core.Expense(nil), l.expenses[start:]...)
}

func (l *Ledger) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.categories.Names()
}

func (l *Ledger) Base() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.base
}

// Budget is the remaining budget: base minus everything recorded.
func (l *Ledger) Budget() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return core.CurrentBudget(l.base, l.expenses)
}

// SetBase persists a new budget base.
func (l *Ledger) SetBase(ctx context.Context, base decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.SaveBase(ctx, base); err != nil {
		return fmt.Errorf("save budget base: %w", err)
	}
	l.base = base
	l.logger.InfoContext(ctx, "Budget base set", log.FieldBudget, base.String())
	return nil
}

func (l *Ledger) Overview(year, month int) core.MonthOverview {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return core.Overview(year, month, l.expenses)
}

// Close releases the underlying store.
func (l *Ledger) Close() error {
	if l.store == nil {
		return nil
	}
	return l.store.Close()
}

func (l *Ledger) indexOf(id int64) int {
	for i := range l.expenses {
		if l.expenses[i].ID == id {
			return i
		}
	}
	return -1
}

// trackCategory must be called with mu held. The expense is already durable,
// so a failed category write is logged and the registry still grows; the
// next load re-derives the entry from the expenses.
func (l *Ledger) trackCategory(ctx context.Context, name string) {
	if !l.categories.Add(name) {
		return
	}
	if err := l.store.SaveCategories(ctx, l.categories.Names()); err != nil {
		l.logger.WarnContext(ctx, "Failed to persist category list",
			log.FieldCategory, name,
			log.FieldError, err)
	}
}

func (l *Ledger) publish(ctx context.Context, kind core.EventKind, e core.Expense) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishExpenseEvent(ctx, kind, e); err != nil {
		// the mutation is durable, export catches up later
		l.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventKind, string(kind),
			log.FieldExpenseID, e.ID,
			log.FieldError, err)
	}
}

// IsUserError reports whether err is caused by the caller's input rather than
// by storage.
func IsUserError(err error) bool {
	return errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrNotFound)
}
