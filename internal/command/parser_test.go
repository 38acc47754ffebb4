package command

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	p := NewParser()
	tests := []struct {
		name     string
		in       string
		action   Action
		amount   string // empty means absent
		category string
	}{
		{"full add", "add expense 20 for food", AddExpense, "20", "food"},
		{"mixed case", "Add Expense 12.75 for Groceries", AddExpense, "12.75", "groceries"},
		{"add an", "add an expense of 50", AddExpense, "50", ""},
		{"category only", "add expense for rent", AddExpense, "", "rent"},
		{"neither", "add expense", AddExpense, "", ""},
		{"zero is absent", "add expense 0 for food", AddExpense, "", "food"},
		{"first number wins", "add expense 5 then 7 for travel", AddExpense, "5", "travel"},
		{"substring category", "I need food for my cat", Unknown, "", "food"},
		{"vocabulary order", "shopping for food", Unknown, "", "food"},
		{"budget", "what is my budget", QueryBudget, "", ""},
		{"check budget", "please check budget", QueryBudget, "", ""},
		{"budget remaining", "budget remaining?", QueryBudget, "", ""},
		{"recent", "show recent expenses", QueryRecent, "", ""},
		{"last", "last expenses please", QueryRecent, "", ""},
		{"help", "help", Help, "", ""},
		{"what can you do", "What can you do", Help, "", ""},
		{"add beats help", "help me add expense 3 for rent", AddExpense, "3", "rent"},
		{"unknown", "hello there", Unknown, "", ""},
		{"empty", "", Unknown, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.in)
			if got.Action != tt.action {
				t.Fatalf("action = %v, want %v", got.Action, tt.action)
			}
			if got.Category != tt.category {
				t.Fatalf("category = %q, want %q", got.Category, tt.category)
			}
			if tt.amount == "" {
				if got.HasAmount() {
					t.Fatalf("expected no amount, got %s", got.Amount)
				}
				return
			}
			if !got.HasAmount() || !got.Amount.Equal(decimal.RequireFromString(tt.amount)) {
				t.Fatalf("amount = %v, want %s", got.Amount, tt.amount)
			}
		})
	}
}

func TestParseCustomVocabulary(t *testing.T) {
	p := NewParser(WithVocabulary(Vocabulary{"coffee", "food"}))
	got := p.Parse("add expense 3 for coffee and food")
	if got.Category != "coffee" {
		t.Fatalf("category = %q", got.Category)
	}
}

func TestExtractFollowUpCategory(t *testing.T) {
	cases := map[string]string{
		"groceries":           "groceries",
		"Groceries":           "groceries",
		"it was for my cat":   "cat",
		"the food":            "food",
		"for the":             "for the",
		"  Coffee  ":          "coffee",
		"":                    "",
		"a new pair of shoes": "new",
	}
	for in, want := range cases {
		if got := ExtractFollowUpCategory(in); got != want {
			t.Fatalf("ExtractFollowUpCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractAmount(t *testing.T) {
	if ExtractAmount("no numbers here") != nil {
		t.Fatalf("expected nil")
	}
	got := ExtractAmount("it was 3.50 dollars")
	if got == nil || !got.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("got %v", got)
	}
}
