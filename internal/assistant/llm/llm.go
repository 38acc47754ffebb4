// Package llm answers assistant requests with a chat model driven through an
// eino chain.
package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"budgetvoice/internal/assistant"
)

var _ assistant.Assistant = (*Service)(nil)

const (
	historyLimit = 10
	// replies longer than this are shown but not read aloud
	maxSpokenRunes = 600
)

// ArkConfig selects and authenticates the Ark-hosted model.
type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	MaxTokens   *int
	Temperature *float32
}

func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewArkChatModel builds the Ark chat model from cfg.
func NewArkChatModel(ctx context.Context, cfg ArkConfig) (model.BaseChatModel, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing")
	}
	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		AccessKey:   cfg.AccessKey,
		SecretKey:   cfg.SecretKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
}

type Service struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// New compiles the prompt + model chain.
func New(ctx context.Context, chatModel model.BaseChatModel) (*Service, error) {
	tmpl := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tmpl)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile assistant chain: %w", err)
	}
	return &Service{chain: runnable}, nil
}

func (s *Service) Ask(ctx context.Context, req assistant.Request) (assistant.Reply, error) {
	input, err := buildInput(req)
	if err != nil {
		return assistant.Reply{}, err
	}
	msg, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return assistant.Reply{}, fmt.Errorf("run assistant chain: %w", err)
	}

	text := strings.TrimSpace(msg.Content)
	return assistant.Reply{
		ResponseText:    text,
		TTSResponseText: spokenText(text),
		VoiceSuitable:   text != "" && utf8.RuneCountInString(text) <= maxSpokenRunes,
	}, nil
}

// buildInput splits the request into system prompt, history and the latest
// user message.
func buildInput(req assistant.Request) (map[string]any, error) {
	msgs := req.Messages
	if len(msgs) == 0 || msgs[len(msgs)-1].Role != assistant.RoleUser {
		return nil, fmt.Errorf("assistant request must end with a user message")
	}
	query := msgs[len(msgs)-1].Content
	past := msgs[:len(msgs)-1]
	if len(past) > historyLimit {
		past = past[len(past)-historyLimit:]
	}

	history := make([]*schema.Message, 0, len(past))
	for _, m := range past {
		switch m.Role {
		case assistant.RoleUser:
			history = append(history, schema.UserMessage(m.Content))
		case assistant.RoleAssistant:
			history = append(history, schema.AssistantMessage(m.Content, nil))
		}
	}

	return map[string]any{
		"system":  systemPrompt(req.PreferredStyle),
		"history": history,
		"query":   query,
	}, nil
}

func systemPrompt(style string) string {
	base := "You are a personal budget assistant. Answer questions about spending, saving and budgeting in plain language."
	switch style {
	case "detailed":
		return base + " Give thorough explanations with concrete steps."
	case "factual":
		return base + " Stick to facts and figures, no small talk."
	}
	return base + " Keep answers short, two or three sentences."
}

// spokenText strips markdown emphasis and bullets that read badly aloud.
func spokenText(s string) string {
	r := strings.NewReplacer("**", "", "__", "", "`", "", "#", "")
	lines := strings.Split(r.Replace(s), "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(l), "-*"))
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, " ")
}
