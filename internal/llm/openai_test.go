package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lumigen/internal/config"
)

func TestOpenAIClient_Generate(t *testing.T) {
	var gotModel string
	var gotMsgs int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string            `json:"model"`
			Messages []json.RawMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel, gotMsgs = req.Model, len(req.Messages)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"olá"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	c := NewOpenAI("key", srv.URL, "test-model")
	resp, err := c.Generate(context.Background(), []Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "oi"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Content != "olá" || resp.TotalTokens != 4 || resp.Model != "test-model" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if gotModel != "test-model" || gotMsgs != 2 {
		t.Fatalf("unexpected request: model=%q msgs=%d", gotModel, gotMsgs)
	}
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	if _, err := NewOpenAI("key", srv.URL, "m").Generate(context.Background(), nil); err == nil {
		t.Fatalf("expected error on empty choices")
	}
}

func TestNewFromConfig(t *testing.T) {
	if _, err := NewFromConfig(&config.Config{Responder: config.ResponderOpenAI}); err == nil {
		t.Fatalf("missing api key should fail")
	}
	c, err := NewFromConfig(&config.Config{Responder: config.ResponderOpenAI, OpenAIAPIKey: "k", OpenAIModel: "m"})
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := c.(*OpenAIClient); !ok {
		t.Fatalf("unexpected client type %T", c)
	}
	if _, err := NewFromConfig(&config.Config{Responder: config.ResponderSimulator}); err == nil {
		t.Fatalf("simulator is not an llm")
	}
}
