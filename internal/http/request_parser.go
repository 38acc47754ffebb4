// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetvoice/internal/core"
)

const maxBodyBytes = 1 << 16 // 64KB

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using the
// given time as default. Out of range months fall back to the default.
func ParseMonthParams(query url.Values, now time.Time) MonthParams {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}

// parseID reads a positive int64 path parameter.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// flexString accepts either a JSON string or a JSON number, so amounts can be
// sent as 12.5 or "12,50".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a number or a string: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// expenseRequest is the typed form for creating and updating expenses.
type expenseRequest struct {
	Amount     flexString `json:"amount"`
	Category   string     `json:"category"`
	Date       string     `json:"date"`
	Billable   bool       `json:"billable"`
	Contact    string     `json:"contact"`
	DueDate    string     `json:"due_date"`
	ReminderOn bool       `json:"reminder_on"`
}

// toExpense converts the form into a draft. Parse failures are reported as
// validation errors on the offending field.
func (req expenseRequest) toExpense() (core.Expense, error) {
	amount, err := core.ParseAmount(sanitizeInput(string(req.Amount)))
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: core.FieldAmount, Reason: "must be a number greater than 0"}
	}
	date, err := core.ParseDate(sanitizeInput(req.Date))
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	due, err := core.ParseDate(sanitizeInput(req.DueDate))
	if err != nil {
		return core.Expense{}, &core.ValidationError{Field: "due_date", Reason: "must be YYYY-MM-DD"}
	}
	return core.Expense{
		Amount:     amount,
		Category:   sanitizeInput(req.Category),
		Date:       date,
		Billable:   req.Billable,
		Contact:    sanitizeInput(req.Contact),
		DueDate:    due,
		ReminderOn: req.ReminderOn,
	}, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
