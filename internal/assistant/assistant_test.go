package assistant

import (
	"context"
	"errors"
	"testing"

	"budgetvoice/internal/narration"
)

type fakeAssistant struct {
	reply Reply
	err   error
	last  Request
}

func (f *fakeAssistant) Ask(_ context.Context, req Request) (Reply, error) {
	f.last = req
	return f.reply, f.err
}

func TestConversationSendsHistoryAndSpeaks(t *testing.T) {
	fake := &fakeAssistant{reply: Reply{ResponseText: "Sure.", TTSResponseText: "Sure thing.", VoiceSuitable: true}}
	rec := &narration.Recorder{}
	conv := NewConversation(fake, rec, "detailed", nil)

	if _, err := conv.Send(context.Background(), "  how am I doing?  ", ""); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(fake.last.Messages) != 2 || fake.last.Messages[0].Content != Greeting || fake.last.Messages[1].Content != "how am I doing?" {
		t.Fatalf("unexpected request messages %+v", fake.last.Messages)
	}
	if fake.last.PreferredStyle != "detailed" || !fake.last.ContinueConversation || fake.last.Role != RoleUser {
		t.Fatalf("unexpected request %+v", fake.last)
	}
	if rec.Last() != "Sure thing." {
		t.Fatalf("expected tts narration, got %q", rec.Last())
	}

	fake.reply = Reply{ResponseText: "A long table", VoiceSuitable: false}
	if _, err := conv.Send(context.Background(), "details please", "factual"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if fake.last.PreferredStyle != "factual" {
		t.Fatalf("style override ignored")
	}
	if len(rec.Lines()) != 1 {
		t.Fatalf("non voice-suitable replies must not be spoken: %v", rec.Lines())
	}
	if h := conv.History(); len(h) != 5 || h[4].Role != RoleAssistant || h[4].Content != "A long table" {
		t.Fatalf("unexpected history %+v", h)
	}
}

func TestConversationError(t *testing.T) {
	fake := &fakeAssistant{err: errors.New("timeout")}
	conv := NewConversation(fake, nil, "bogus", nil)

	reply, err := conv.Send(context.Background(), "hi", "")
	if err == nil || reply.ResponseText != ErrorMessage {
		t.Fatalf("expected error reply, got %+v %v", reply, err)
	}
	if fake.last.PreferredStyle != "concise" {
		t.Fatalf("invalid style should fall back to concise, got %q", fake.last.PreferredStyle)
	}
	h := conv.History()
	if h[len(h)-1].Content != ErrorMessage {
		t.Fatalf("error reply not recorded: %+v", h)
	}
	if _, err := conv.Send(context.Background(), "   ", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}
