package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"budgetvoice/internal/core"
)

// Header is the first row of every yearly export sheet.
var Header = []any{"Recorded", "Event", "ID", "Date", "Category", "Amount", "Billable", "Contact", "Due", "Reminder"}

// expenseRow renders one event as a sheet row, in Header order.
func expenseRow(kind core.EventKind, e core.Expense, at time.Time) []any {
	return []any{
		at.UTC().Format(time.RFC3339),
		string(kind),
		e.ID,
		e.Date.String(),
		e.Category,
		core.FormatAmountFixed(e.Amount),
		yesNo(e.Billable),
		e.Contact,
		e.DueDate.String(),
		yesNo(e.ReminderOn),
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// appendRange is the A1 range covering all Header columns of a sheet.
func appendRange(sheet string) string {
	last := rune('A' + len(Header) - 1)
	return fmt.Sprintf("'%s'!A:%c", sheet, last)
}
