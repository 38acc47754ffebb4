package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"budgetvoice/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseEventMessage carries a full snapshot of the expense so consumers
// never need access to the device-local database.
type ExpenseEventMessage struct {
	ID        string         `json:"id"`
	Kind      core.EventKind `json:"kind"`
	Expense   ExpensePayload `json:"expense"`
	Timestamp time.Time      `json:"timestamp"`
}

type ExpensePayload struct {
	ID         int64           `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	Date       string          `json:"date"`
	Billable   bool            `json:"billable"`
	Contact    string          `json:"contact,omitempty"`
	DueDate    string          `json:"due_date,omitempty"`
	ReminderOn bool            `json:"reminder_on"`
	CreatedAt  time.Time       `json:"created_at"`
}

func NewExpenseEventMessage(kind core.EventKind, e core.Expense) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		ID:        uuid.NewString(),
		Kind:      kind,
		Expense:   PayloadFromExpense(e),
		Timestamp: time.Now(),
	}
}

func PayloadFromExpense(e core.Expense) ExpensePayload {
	return ExpensePayload{
		ID:         e.ID,
		Amount:     e.Amount,
		Category:   e.Category,
		Date:       e.Date.String(),
		Billable:   e.Billable,
		Contact:    e.Contact,
		DueDate:    e.DueDate.String(),
		ReminderOn: e.ReminderOn,
		CreatedAt:  e.CreatedAt,
	}
}

// ToExpense converts the payload back into a domain expense.
func (p ExpensePayload) ToExpense() (core.Expense, error) {
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse date: %w", err)
	}
	due, err := core.ParseDate(p.DueDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse due date: %w", err)
	}
	return core.Expense{
		ID:         p.ID,
		Amount:     p.Amount,
		Category:   p.Category,
		Date:       date,
		Billable:   p.Billable,
		Contact:    p.Contact,
		DueDate:    due,
		ReminderOn: p.ReminderOn,
		CreatedAt:  p.CreatedAt,
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventMessageFromJSON decodes and sanity checks a message.
func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case core.EventCreated, core.EventUpdated, core.EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	return &msg, nil
}
