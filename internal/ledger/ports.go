package ledger

import (
	"context"

	"budgetvoice/internal/core"

	"github.com/shopspring/decimal"
)

// ExpenseStore persists expense records. InsertExpense assigns a fresh
// ascending id; UpdateExpense and DeleteExpense return *core.NotFoundError
// for unknown ids.
type ExpenseStore interface {
	LoadExpenses(ctx context.Context) ([]core.Expense, error)
	InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id int64) error
}

// CategoryStore persists the ordered category list, rewritten in full.
type CategoryStore interface {
	LoadCategories(ctx context.Context) ([]string, error)
	SaveCategories(ctx context.Context, names []string) error
}

// SettingsStore persists the budget base. ok is false when nothing was saved.
type SettingsStore interface {
	LoadBase(ctx context.Context) (base decimal.Decimal, ok bool, err error)
	SaveBase(ctx context.Context, base decimal.Decimal) error
}

// Store aggregates all persistence the ledger needs.
type Store interface {
	ExpenseStore
	CategoryStore
	SettingsStore
	Close() error
}

// EventPublisher receives ledger mutations after they are persisted.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, kind core.EventKind, e core.Expense) error
}
