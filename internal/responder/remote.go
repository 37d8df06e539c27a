package responder

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"lumigen/internal/api"
	"lumigen/internal/chat"
)

// Remote forwards questions to the chat backend (POST /api/chat/message).
// The backend assigns its own conversation ids; Remote remembers which one
// belongs to each local conversation.
type Remote struct {
	baseURL string
	userID  string
	client  *http.Client

	mu        sync.Mutex
	remoteIDs map[string]string
}

func NewRemote(baseURL, userID, token string, timeout time.Duration) *Remote {
	return &Remote{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userID:    userID,
		client:    api.BearerClient(token, timeout),
		remoteIDs: make(map[string]string),
	}
}

func (r *Remote) Reply(ctx context.Context, req chat.Request) (string, error) {
	r.mu.Lock()
	remoteID := r.remoteIDs[req.ConversationID]
	r.mu.Unlock()

	body := api.ChatRequest{
		Message:        req.Question,
		ConversationID: remoteID,
		UserID:         r.userID,
		History:        api.TrimHistory(req.History),
	}
	var out api.ChatResponse
	if err := api.DoJSON(ctx, r.client, http.MethodPost, r.baseURL+"/api/chat/message", body, &out, "Erro ao enviar mensagem"); err != nil {
		return "", err
	}

	if out.ConversationID != "" && req.ConversationID != "" {
		r.mu.Lock()
		r.remoteIDs[req.ConversationID] = out.ConversationID
		r.mu.Unlock()
	}
	return out.Message, nil
}
