// Package reminder narrates payment reminders for billable expenses.
//
// Due checking follows the strategy pattern: each policy decides, from the
// due date and the current time, whether a reminder should fire.
package reminder

import (
	"fmt"
	"time"

	"budgetvoice/internal/core"
)

// DueChecker decides whether a reminder for an expense due on due should
// fire at now.
type DueChecker interface {
	IsDue(due core.Date, now time.Time) bool
}

// OnDueDate fires from the due date onwards.
type OnDueDate struct{}

func (OnDueDate) IsDue(due core.Date, now time.Time) bool {
	if due.IsEmpty() {
		return false
	}
	return !core.DateOf(now).Before(due.Time)
}

// LeadTime fires Lead ahead of the due date, rounded down to whole days.
type LeadTime struct {
	Lead time.Duration
}

func (l LeadTime) IsDue(due core.Date, now time.Time) bool {
	if due.IsEmpty() {
		return false
	}
	days := int(l.Lead / (24 * time.Hour))
	if days < 0 {
		days = 0
	}
	start := due.AddDate(0, 0, -days)
	return !core.DateOf(now).Before(start)
}

// CheckerFor returns OnDueDate for a zero lead, LeadTime otherwise.
func CheckerFor(lead time.Duration) DueChecker {
	if lead <= 0 {
		return OnDueDate{}
	}
	return LeadTime{Lead: lead}
}

// reminderText is what gets narrated for e on the given day.
func reminderText(e core.Expense, today core.Date) string {
	verb := "is due"
	switch {
	case today.Equal(e.DueDate.Time):
		verb = "is due today,"
	case today.After(e.DueDate.Time):
		verb = "was due"
	}
	return fmt.Sprintf("Reminder: %s from %s for %s %s on %s.",
		core.FormatAmount(e.Amount), e.Contact, e.Category, verb, e.DueDate)
}
