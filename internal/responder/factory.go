package responder

import (
	"fmt"
	"log"
	"os"
	"strings"

	"lumigen/internal/chat"
	"lumigen/internal/config"
	"lumigen/internal/llm"
	"lumigen/internal/session"
)

// Factory builds the responder used for a logged-in user.
type Factory func(s session.Session) chat.Responder

// NewFactory selects the responder implementation named by cfg.Responder.
func NewFactory(cfg *config.Config) (Factory, error) {
	switch cfg.Responder {
	case config.ResponderSimulator:
		sim := NewSimulator()
		return func(session.Session) chat.Responder { return sim }, nil
	case config.ResponderOpenAI, config.ResponderYandex:
		client, err := llm.NewFromConfig(cfg)
		if err != nil {
			return nil, err
		}
		r := NewLLM(client, ReadSystemPrompt(cfg.SystemPromptPath))
		return func(session.Session) chat.Responder { return r }, nil
	case config.ResponderRemote:
		return func(s session.Session) chat.Responder {
			return NewRemote(cfg.BackendBaseURL, s.User.ID, s.Token, cfg.HTTPTimeout)
		}, nil
	default:
		return nil, fmt.Errorf("unknown responder: %q", cfg.Responder)
	}
}

// ReadSystemPrompt returns the trimmed file content, or "" when it cannot be
// read.
func ReadSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("system prompt file not found or unreadable at %s: %v", path, err)
		return ""
	}
	return strings.TrimSpace(string(data))
}
