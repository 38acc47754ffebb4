// Package assistant forwards free-form questions to a conversational
// assistant and keeps the running conversation.
package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"budgetvoice/internal/log"
	"budgetvoice/internal/narration"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	Greeting     = "Hello! I can help you manage your finances. What would you like to know about today?"
	ErrorMessage = "Sorry, I encountered an error. Please try again."
)

// Styles accepted for preferred_style.
var Styles = []string{"concise", "detailed", "factual"}

var ErrEmptyMessage = errors.New("assistant: empty message")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Messages             []Message `json:"messages"`
	Role                 string    `json:"role"`
	PreferredStyle       string    `json:"preferred_style"`
	ContinueConversation bool      `json:"continue_conversation"`
}

// Reply carries display text, the variant meant for speech and whether the
// reply is suitable for reading aloud at all.
type Reply struct {
	ResponseText    string `json:"response"`
	TTSResponseText string `json:"tts_response"`
	VoiceSuitable   bool   `json:"voice_suitable"`
}

type Assistant interface {
	Ask(ctx context.Context, req Request) (Reply, error)
}

// ValidStyle reports whether s is one of Styles.
func ValidStyle(s string) bool {
	for _, v := range Styles {
		if v == s {
			return true
		}
	}
	return false
}

// Conversation keeps the message history and speaks voice-suitable replies.
type Conversation struct {
	mu      sync.Mutex
	client  Assistant
	sink    narration.Sink
	style   string
	history []Message
	logger  *log.Logger
}

func NewConversation(client Assistant, sink narration.Sink, style string, logger *log.Logger) *Conversation {
	if sink == nil {
		sink = narration.Discard
	}
	if !ValidStyle(style) {
		style = Styles[0]
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Conversation{
		client:  client,
		sink:    sink,
		style:   style,
		history: []Message{{Role: RoleAssistant, Content: Greeting}},
		logger:  logger.WithComponent(log.ComponentAssistant),
	}
}

// Send forwards text with the full history. On failure the conversation
// records the generic error reply and returns it together with the error.
func (c *Conversation) Send(ctx context.Context, text, style string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}
	if !ValidStyle(style) {
		style = c.style
	}

	c.mu.Lock()
	c.history = append(c.history, Message{Role: RoleUser, Content: text})
	req := Request{
		Messages:             append([]Message(nil), c.history...),
		Role:                 RoleUser,
		PreferredStyle:       style,
		ContinueConversation: true,
	}
	c.mu.Unlock()

	reply, err := c.client.Ask(ctx, req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Assistant request failed", log.FieldError, err)
		c.record(ErrorMessage)
		return Reply{ResponseText: ErrorMessage}, err
	}

	c.record(reply.ResponseText)
	if reply.VoiceSuitable && reply.TTSResponseText != "" {
		c.sink.Narrate(ctx, reply.TTSResponseText)
	}
	return reply, nil
}

// History returns a copy of the conversation so far.
func (c *Conversation) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.history...)
}

func (c *Conversation) record(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, Message{Role: RoleAssistant, Content: text})
}
