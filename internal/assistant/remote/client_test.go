package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"budgetvoice/internal/assistant"
)

func TestClientAsk(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte(`{"response":"You spent $20 on food.","tts_response":"You spent twenty dollars on food.","voice_suitable":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	reply, err := c.Ask(context.Background(), assistant.Request{
		Messages:             []assistant.Message{{Role: "user", Content: "how much on food?"}},
		Role:                 "user",
		PreferredStyle:       "concise",
		ContinueConversation: true,
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.ResponseText != "You spent $20 on food." || !reply.VoiceSuitable || reply.TTSResponseText == "" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	if got["preferred_style"] != "concise" || got["continue_conversation"] != true {
		t.Fatalf("unexpected wire body %v", got)
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages not forwarded: %v", got["messages"])
	}
}

func TestClientAskErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Ask(context.Background(), assistant.Request{})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}
