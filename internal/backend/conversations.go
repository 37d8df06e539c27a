package backend

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"lumigen/internal/chat"
	"lumigen/internal/kv"
)

const conversationsKeyPrefix = "conversations:"

// userConversations is one user's repository, persisted as a JSON list in
// the key/value store after every change.
type userConversations struct {
	mu   sync.Mutex
	repo *chat.Repository
}

type conversationStore struct {
	kv kv.Store

	mu    sync.Mutex
	users map[string]*userConversations
}

func newConversationStore(store kv.Store) *conversationStore {
	return &conversationStore{kv: store, users: make(map[string]*userConversations)}
}

// forUser returns the user's conversations, loading them on first use.
func (s *conversationStore) forUser(userID string) *userConversations {
	s.mu.Lock()
	defer s.mu.Unlock()
	if uc, ok := s.users[userID]; ok {
		return uc
	}
	uc := &userConversations{repo: chat.NewRepository()}
	if convs, err := s.load(userID); err != nil {
		log.Printf("failed loading conversations of user %s: %v", userID, err)
	} else {
		uc.repo.Seed(convs...)
	}
	s.users[userID] = uc
	return uc
}

func (s *conversationStore) load(userID string) ([]chat.Conversation, error) {
	raw, ok, err := s.kv.Get(conversationsKeyPrefix + userID)
	if err != nil || !ok {
		return nil, err
	}
	var convs []chat.Conversation
	if err := json.Unmarshal([]byte(raw), &convs); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}
	return convs, nil
}

// save must be called with uc.mu held.
func (s *conversationStore) save(userID string, uc *userConversations) {
	data, err := json.Marshal(uc.repo.List())
	if err != nil {
		log.Printf("failed encoding conversations of user %s: %v", userID, err)
		return
	}
	if err := s.kv.Set(conversationsKeyPrefix+userID, string(data)); err != nil {
		log.Printf("failed saving conversations of user %s: %v", userID, err)
	}
}
