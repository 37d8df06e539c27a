package llm

import (
	"fmt"

	"lumigen/internal/config"
)

// NewFromConfig builds the hosted model client selected by cfg.Responder.
func NewFromConfig(cfg *config.Config) (Client, error) {
	switch cfg.Responder {
	case config.ResponderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai responder")
		}
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel), nil
	case config.ResponderYandex:
		return NewYandex(cfg.YandexOAuthToken, cfg.YandexFolderID)
	default:
		return nil, fmt.Errorf("responder %q is not backed by an llm", cfg.Responder)
	}
}
