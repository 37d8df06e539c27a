package responder

import (
	"context"
	"fmt"

	"lumigen/internal/api"
	"lumigen/internal/chat"
	"lumigen/internal/llm"
)

// LLM answers with a hosted model, passing the recent history as context.
type LLM struct {
	client       llm.Client
	systemPrompt string
}

func NewLLM(client llm.Client, systemPrompt string) *LLM {
	return &LLM{client: client, systemPrompt: systemPrompt}
}

func (l *LLM) Reply(ctx context.Context, req chat.Request) (string, error) {
	var msgs []llm.Message
	if l.systemPrompt != "" {
		msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: l.systemPrompt})
	}
	for _, m := range api.TrimHistory(req.History) {
		switch m.Role {
		case chat.RoleUser:
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case chat.RoleAssistant:
			msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Question})

	resp, err := l.client.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return resp.Content, nil
}
