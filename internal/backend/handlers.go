package backend

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"lumigen/internal/api"
	"lumigen/internal/chat"
	"lumigen/internal/storage"
)

type ctxKey struct{}

func userFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// authenticated rejects requests without a valid bearer token and passes the
// token's user down in the request context.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Token ausente")
			return
		}
		userID, ok := s.tokens.Lookup(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Sessão expirada")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, userID)))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tokens": s.tokens.Len()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Por favor, preencha o email e a senha.")
		return
	}
	acc, ok := s.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	if !ok || acc.Password != req.Password {
		writeError(w, http.StatusUnauthorized, "Email ou senha inválidos")
		return
	}
	token := acc.Token
	if token == "" {
		token = s.tokens.Issue(acc.ID)
	}
	log.Printf("user %s logged in", acc.ID)
	writeJSON(w, http.StatusOK, api.LoginResponse{
		Token: token,
		User:  api.User{ID: acc.ID, Name: acc.Name, Email: acc.Email},
	})
}

func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID != userFrom(r.Context()) {
		writeError(w, http.StatusForbidden, "Acesso negado")
		return
	}
	writeJSON(w, http.StatusOK, s.courses(userID))
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	question := strings.TrimSpace(req.Message)
	if question == "" {
		writeError(w, http.StatusBadRequest, "Mensagem vazia")
		return
	}
	if req.UserID != "" && req.UserID != userID {
		writeError(w, http.StatusForbidden, "Acesso negado")
		return
	}
	if s.responder == nil {
		writeError(w, http.StatusServiceUnavailable, "Assistente indisponível")
		return
	}

	uc := s.convs.forUser(userID)
	uc.mu.Lock()
	convID := req.ConversationID
	var history []chat.Message
	if convID == "" {
		conv := uc.repo.Create(chat.TitleFromText(question))
		convID = conv.ID
		s.convs.save(userID, uc)
	} else {
		conv, ok := uc.repo.Get(convID)
		if !ok {
			uc.mu.Unlock()
			writeError(w, http.StatusNotFound, "Conversa não encontrada")
			return
		}
		history = conv.Messages
	}
	uc.mu.Unlock()
	if len(req.History) > 0 {
		history = req.History
	}

	reply, err := s.responder.Reply(r.Context(), chat.Request{
		ConversationID: convID,
		Question:       question,
		History:        api.TrimHistory(history),
	})
	if err != nil {
		log.Printf("responder failed for user %s: %v", userID, err)
		writeError(w, http.StatusBadGateway, "Erro ao gerar resposta")
		return
	}

	now := s.now()
	user := chat.Message{ID: uuid.NewString(), Role: chat.RoleUser, Content: question, Timestamp: now}
	assistant := chat.Message{ID: uuid.NewString(), Role: chat.RoleAssistant, Content: reply, Timestamp: now}

	uc.mu.Lock()
	if uc.repo.Commit(convID, user, assistant) {
		s.convs.save(userID, uc)
	} else {
		log.Printf("conversation %s of user %s deleted before reply", convID, userID)
	}
	uc.mu.Unlock()

	if s.recorder != nil {
		ev := storage.Event{
			Timestamp:         now,
			UserID:            userID,
			ConversationID:    convID,
			UserMessage:       question,
			AssistantResponse: reply,
			Source:            "devserver",
		}
		if err := s.recorder.AppendInteraction(ev); err != nil {
			log.Printf("failed recording exchange: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, api.ChatResponse{
		Message:        reply,
		ConversationID: convID,
		MessageID:      assistant.ID,
		Timestamp:      now,
	})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	if q := r.URL.Query().Get("userId"); q != "" && q != userID {
		writeError(w, http.StatusForbidden, "Acesso negado")
		return
	}
	uc := s.convs.forUser(userID)
	uc.mu.Lock()
	list := uc.repo.List()
	uc.mu.Unlock()
	writeJSON(w, http.StatusOK, api.ConversationList{Conversations: list})
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	var req api.CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Requisição inválida")
		return
	}
	if req.UserID != "" && req.UserID != userID {
		writeError(w, http.StatusForbidden, "Acesso negado")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = chat.DefaultTitle
	}
	uc := s.convs.forUser(userID)
	uc.mu.Lock()
	conv := uc.repo.Create(title)
	s.convs.save(userID, uc)
	uc.mu.Unlock()
	writeJSON(w, http.StatusCreated, conv)
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	uc := s.convs.forUser(userFrom(r.Context()))
	uc.mu.Lock()
	conv, ok := uc.repo.Get(r.PathValue("id"))
	uc.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Conversa não encontrada")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleRenameConversation(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	var req api.RenameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Título inválido")
		return
	}
	id := r.PathValue("id")
	uc := s.convs.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if !uc.repo.Rename(id, strings.TrimSpace(req.Title)) {
		writeError(w, http.StatusNotFound, "Conversa não encontrada")
		return
	}
	s.convs.save(userID, uc)
	conv, _ := uc.repo.Get(id)
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context())
	id := r.PathValue("id")
	uc := s.convs.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, ok := uc.repo.Get(id); !ok {
		writeError(w, http.StatusNotFound, "Conversa não encontrada")
		return
	}
	uc.repo.Delete(id)
	s.convs.save(userID, uc)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, api.ErrorResponse{Message: msg})
}
