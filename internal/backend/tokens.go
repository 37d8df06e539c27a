package backend

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type grant struct {
	userID  string
	expires time.Time
}

// TokenStore issues opaque bearer tokens that expire after ttl.
type TokenStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	grants map[string]grant
}

func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{ttl: ttl, now: time.Now, grants: make(map[string]grant)}
}

func (s *TokenStore) Issue(userID string) string {
	token := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[token] = grant{userID: userID, expires: s.now().Add(s.ttl)}
	return token
}

// Grant registers a fixed token that never expires.
func (s *TokenStore) Grant(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[token] = grant{userID: userID}
}

// Lookup returns the user owning token if it is still valid.
func (s *TokenStore) Lookup(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.grants[token]
	if !ok || s.expired(g) {
		return "", false
	}
	return g.userID, true
}

// PurgeExpired drops expired tokens and returns how many were removed.
func (s *TokenStore) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for tok, g := range s.grants {
		if s.expired(g) {
			delete(s.grants, tok)
			n++
		}
	}
	return n
}

func (s *TokenStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}

func (s *TokenStore) expired(g grant) bool {
	return !g.expires.IsZero() && !s.now().Before(g.expires)
}
