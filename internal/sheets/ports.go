package sheets

import (
	"context"
	"time"

	"budgetvoice/internal/core"
)

// EventWriter appends ledger events to an external spreadsheet. Rows are
// never rewritten: updates and deletions are recorded as new rows.
type EventWriter interface {
	AppendExpenseEvent(ctx context.Context, kind core.EventKind, e core.Expense, at time.Time) (rowRef string, err error)
}
