package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetvoice/internal/core"
	"budgetvoice/internal/ledger"
	"budgetvoice/internal/log"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type expenseResponse struct {
	ID         int64     `json:"id"`
	Amount     string    `json:"amount"`
	Category   string    `json:"category"`
	Date       string    `json:"date"`
	Billable   bool      `json:"billable"`
	Contact    string    `json:"contact,omitempty"`
	DueDate    string    `json:"due_date,omitempty"`
	ReminderOn bool      `json:"reminder_on"`
	CreatedAt  time.Time `json:"created_at"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:         e.ID,
		Amount:     e.Amount.StringFixed(2),
		Category:   e.Category,
		Date:       e.Date.String(),
		Billable:   e.Billable,
		Contact:    e.Contact,
		DueDate:    e.DueDate.String(),
		ReminderOn: e.ReminderOn,
		CreatedAt:  e.CreatedAt,
	}
}

func toExpenseResponses(expenses []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	return out
}

type expenseMutationResponse struct {
	Expense expenseResponse `json:"expense"`
	Budget  string          `json:"budget"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(toExpenseResponses(s.ledger.ListExpenses())).Write(w)
}

func (s *Server) handleRecentExpenses(w http.ResponseWriter, r *http.Request) {
	n := 3
	if v := strings.TrimSpace(r.URL.Query().Get("n")); v != "" {
		id, err := parseID(v)
		if err != nil {
			BadRequestError("n must be a positive integer").Write(w)
			return
		}
		n = int(min(id, 100))
	}
	NewResponse().JSON(toExpenseResponses(s.ledger.Recent(n))).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := s.ledger.Get(id)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().JSON(toExpenseResponse(e)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	draft, err := req.toExpense()
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}

	stored, err := s.ledger.AddExpense(ctx, draft)
	if err != nil {
		s.logMutationError(ctx, log.OpCreate, 0, err)
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+strconv.FormatInt(stored.ID, 10)).
		JSON(expenseMutationResponse{Expense: toExpenseResponse(stored), Budget: s.ledger.Budget().String()}).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, err := req.toExpense()
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	e.ID = id

	stored, err := s.ledger.UpdateExpense(ctx, e)
	if err != nil {
		s.logMutationError(ctx, log.OpUpdate, id, err)
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().
		JSON(expenseMutationResponse{Expense: toExpenseResponse(stored), Budget: s.ledger.Budget().String()}).
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.ledger.DeleteExpense(ctx, id); err != nil {
		s.logMutationError(ctx, log.OpDelete, id, err)
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().Status(http.StatusNoContent).Write(w)
}

// logMutationError logs storage failures; rejected input is the caller's
// problem and only answered.
func (s *Server) logMutationError(ctx context.Context, op string, id int64, err error) {
	if ledger.IsUserError(err) {
		return
	}
	log.FromContext(ctx).ErrorContext(ctx, "Ledger mutation failed",
		log.FieldOperation, op,
		log.FieldExpenseID, id,
		log.FieldError, err)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(s.ledger.Categories()).Write(w)
}

type budgetResponse struct {
	Base      string `json:"base"`
	Remaining string `json:"remaining"`
}

func (s *Server) handleBudget(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(budgetResponse{
		Base:      s.ledger.Base().String(),
		Remaining: s.ledger.Budget().String(),
	}).Write(w)
}

type baseRequest struct {
	Base flexString `json:"base"`
}

// handleSetBase reassigns the budget base and narrates the new value.
func (s *Server) handleSetBase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req baseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	raw := strings.ReplaceAll(strings.TrimPrefix(sanitizeInput(string(req.Base)), "$"), ",", ".")
	base, err := decimal.NewFromString(raw)
	if err != nil || base.IsNegative() {
		UnprocessableEntityError("invalid base: must be a non-negative number", "base").Write(w)
		return
	}

	if err := s.ledger.SetBase(ctx, base); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Failed to set budget base", log.FieldError, err)
		ErrorFor(err).Write(w)
		return
	}
	s.sink.Narrate(ctx, "Budget set to "+core.FormatAmount(base))
	NewResponse().JSON(budgetResponse{
		Base:      s.ledger.Base().String(),
		Remaining: s.ledger.Budget().String(),
	}).Write(w)
}

type categoryAmountResponse struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

type overviewResponse struct {
	Year       int                      `json:"year"`
	Month      int                      `json:"month"`
	Total      string                   `json:"total"`
	ByCategory []categoryAmountResponse `json:"by_category"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	params := ParseMonthParams(r.URL.Query(), s.now())
	ov := s.ledger.Overview(params.Year, params.Month)

	resp := overviewResponse{
		Year:       ov.Year,
		Month:      ov.Month,
		Total:      ov.Total.StringFixed(2),
		ByCategory: make([]categoryAmountResponse, 0, len(ov.ByCategory)),
	}
	for _, c := range ov.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryAmountResponse{Name: c.Name, Amount: c.Amount.StringFixed(2)})
	}
	NewResponse().JSON(resp).Write(w)
}
