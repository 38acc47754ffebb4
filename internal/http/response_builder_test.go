package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"budgetvoice/internal/core"
	"budgetvoice/internal/dialogue"
)

func TestResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().
		Status(http.StatusAccepted).
		Header("X-Test", "yes").
		JSON(map[string]int{"n": 1}).
		Write(rr)

	if rr.Code != http.StatusAccepted {
		t.Errorf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Test") != "yes" {
		t.Errorf("custom header missing")
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	var body map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["n"] != 1 {
		t.Errorf("body = %q (%v)", rr.Body.String(), err)
	}
}

func TestResponseBuilder_NoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "" {
		t.Errorf("no content type expected for empty body")
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantField string
	}{
		{"validation", &core.ValidationError{Field: core.FieldCategory, Reason: "is required"}, http.StatusUnprocessableEntity, "category"},
		{"wrapped validation", fmt.Errorf("add: %w", &core.ValidationError{Field: core.FieldAmount}), http.StatusUnprocessableEntity, "amount"},
		{"not found", &core.NotFoundError{ID: 7}, http.StatusNotFound, ""},
		{"busy", dialogue.ErrBusy, http.StatusConflict, ""},
		{"turn open", dialogue.ErrTurnOpen, http.StatusConflict, ""},
		{"storage", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			ErrorFor(tt.err).Write(rr)
			if rr.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rr.Code, tt.wantCode)
			}
			var body errorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Field, tt.wantField)
			}
			if body.Error == "disk on fire" {
				t.Errorf("storage error leaked to client")
			}
		})
	}
}
