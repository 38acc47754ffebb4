package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"budgetvoice/internal/assistant"
	"budgetvoice/internal/dialogue"
	"budgetvoice/internal/log"
)

type sessionResponse struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Amount    string    `json:"amount,omitempty"`
	Category  string    `json:"category,omitempty"`
	Listening bool      `json:"listening"`
	Executing bool      `json:"executing"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSessionResponse(sess dialogue.Session) sessionResponse {
	resp := sessionResponse{
		ID:        sess.ID,
		State:     sess.State.String(),
		Listening: sess.Listening,
		Executing: sess.Executing,
		UpdatedAt: sess.UpdatedAt,
	}
	switch sess.State {
	case dialogue.AwaitingCategory:
		resp.Amount = sess.Amount.String()
	case dialogue.AwaitingAmount:
		resp.Category = sess.Category
	}
	return resp
}

type outcomeResponse struct {
	Kind      string           `json:"kind"`
	Action    string           `json:"action"`
	State     string           `json:"state"`
	Narration []string         `json:"narration"`
	Expense   *expenseResponse `json:"expense,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func toOutcomeResponse(out dialogue.Outcome) outcomeResponse {
	resp := outcomeResponse{
		Kind:      out.Kind.String(),
		Action:    out.Intent.Action.String(),
		State:     out.State.String(),
		Narration: out.Narration,
	}
	if resp.Narration == nil {
		resp.Narration = []string{}
	}
	if out.Expense != nil {
		e := toExpenseResponse(*out.Expense)
		resp.Expense = &e
	}
	if out.Err != nil {
		resp.Error = out.Err.Error()
	}
	return resp
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(toSessionResponse(s.controller.Session())).Write(w)
}

func (s *Server) handleStartListening(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.StartListening(r.Context()); err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().JSON(toSessionResponse(s.controller.Session())).Write(w)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.controller.Cancel(r.Context())
	NewResponse().JSON(toSessionResponse(s.controller.Session())).Write(w)
}

type utteranceRequest struct {
	Text string `json:"text"`
}

// handleUtterance feeds one final transcript or typed command to the
// dialogue. A failed save is still a 200: the outcome carries the narration.
func (s *Server) handleUtterance(w http.ResponseWriter, r *http.Request) {
	var req utteranceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	out, err := s.runUtterance(r.Context(), sanitizeInput(req.Text))
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().JSON(toOutcomeResponse(out)).Write(w)
}

// runUtterance is shared by the JSON endpoint and the websocket channel.
func (s *Server) runUtterance(ctx context.Context, text string) (dialogue.Outcome, error) {
	out, err := s.controller.HandleUtterance(ctx, text)
	if err != nil {
		return out, err
	}
	log.FromContext(ctx).DebugContext(ctx, "Utterance handled",
		log.FieldAction, out.Intent.Action.String(),
		log.FieldState, out.State.String(),
		"outcome", out.Kind.String())
	return out, nil
}

type assistantRequest struct {
	Message string `json:"message"`
	Style   string `json:"style"`
}

type assistantResponse struct {
	assistant.Reply
	Error string `json:"error,omitempty"`
}

// handleAssistant forwards free-form chat. A failing backend answers 502
// with the generic apology so clients can still render a reply.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if s.conversation == nil {
		ServiceUnavailableError("assistant is not configured").Write(w)
		return
	}
	var req assistantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	reply, err := s.conversation.Send(r.Context(), sanitizeInput(req.Message), req.Style)
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage):
		BadRequestError("message is required").Write(w)
	case err != nil:
		NewResponse().Status(http.StatusBadGateway).
			JSON(assistantResponse{Reply: reply, Error: "assistant unavailable"}).
			Write(w)
	default:
		NewResponse().JSON(assistantResponse{Reply: reply}).Write(w)
	}
}

func (s *Server) handleAssistantHistory(w http.ResponseWriter, _ *http.Request) {
	if s.conversation == nil {
		ServiceUnavailableError("assistant is not configured").Write(w)
		return
	}
	NewResponse().JSON(s.conversation.History()).Write(w)
}
