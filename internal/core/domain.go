package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Expense is a single ledger record. ID and CreatedAt are assigned by the
	// ledger on creation; CreatedAt never changes afterwards.
	Expense struct {
		ID         int64
		Amount     decimal.Decimal
		Category   string
		Date       Date
		Billable   bool
		Contact    string
		DueDate    Date // zero when absent
		ReminderOn bool
		CreatedAt  time.Time
	}
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// Normalize applies the billable rules: a non-billable expense carries no
// contact, no due date and no reminder. A missing date becomes today.
func (e Expense) Normalize(now time.Time) Expense {
	e.Category = strings.TrimSpace(e.Category)
	e.Contact = strings.TrimSpace(e.Contact)
	if e.Date.IsZero() {
		e.Date = DateOf(now)
	}
	if !e.Billable {
		e.Contact = ""
		e.DueDate = Date{}
		e.ReminderOn = false
	}
	return e
}

// Validate reports the first violated field in the order amount, category,
// contact.
func (e Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return &ValidationError{Field: FieldAmount, Reason: "must be greater than 0"}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: FieldCategory, Reason: "is required"}
	}
	if e.Billable && strings.TrimSpace(e.Contact) == "" {
		return &ValidationError{Field: FieldContact, Reason: "is required for billable expenses"}
	}
	return nil
}

// Reminder reports whether the expense should produce a due-date reminder.
func (e Expense) Reminder() bool {
	return e.Billable && e.ReminderOn && !e.DueDate.IsZero()
}
