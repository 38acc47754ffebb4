package http

import (
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"budgetvoice/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query string
		want  MonthParams
	}{
		{"defaults", "", MonthParams{2026, 10}},
		{"explicit", "year=2025&month=3", MonthParams{2025, 3}},
		{"month out of range", "month=13", MonthParams{2026, 10}},
		{"garbage", "year=abc&month=x", MonthParams{2026, 10}},
		{"whitespace", "year=%202024%20&month=%201", MonthParams{2024, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if got := ParseMonthParams(q, now); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{" 42 ", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		json string
		want string
	}{
		{`{"amount": 12.5}`, "12.5"},
		{`{"amount": "12,50"}`, "12,50"},
		{`{"amount": 20}`, "20"},
		{`{}`, ""},
	}
	for _, tt := range tests {
		var req expenseRequest
		if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.json, err)
		}
		if string(req.Amount) != tt.want {
			t.Errorf("%s -> %q, want %q", tt.json, req.Amount, tt.want)
		}
	}

	var req expenseRequest
	if err := json.Unmarshal([]byte(`{"amount": true}`), &req); err == nil {
		t.Error("expected error for boolean amount")
	}
}

func TestExpenseRequest_ToExpense(t *testing.T) {
	req := expenseRequest{
		Amount:     "$12.30",
		Category:   "  Food\x00 ",
		Date:       "2026-10-01",
		Billable:   true,
		Contact:    "ACME",
		DueDate:    "2026-11-01",
		ReminderOn: true,
	}
	e, err := req.toExpense()
	if err != nil {
		t.Fatalf("toExpense: %v", err)
	}
	if e.Amount.String() != "12.3" || e.Category != "Food" || e.Date != core.NewDate(2026, 10, 1) {
		t.Errorf("expense = %+v", e)
	}
	if e.DueDate != core.NewDate(2026, 11, 1) || !e.ReminderOn || e.Contact != "ACME" {
		t.Errorf("billable fields = %+v", e)
	}

	tests := []struct {
		name  string
		req   expenseRequest
		field string
	}{
		{"empty amount", expenseRequest{Category: "x"}, core.FieldAmount},
		{"negative amount", expenseRequest{Amount: "-4", Category: "x"}, core.FieldAmount},
		{"bad date", expenseRequest{Amount: "4", Date: "yesterday"}, "date"},
		{"bad due date", expenseRequest{Amount: "4", DueDate: "2026-13-01"}, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.toExpense()
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if field, _ := core.ValidationField(err); field != tt.field {
				t.Errorf("field = %q, want %q", field, tt.field)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  ", "hello"},
		{"a\x00b\x07c", "abc"},
		{"line\nbreak", "line\nbreak"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
