package session

import (
	"encoding/json"
	"log"
	"sync"

	"lumigen/internal/kv"
)

const DefaultKey = "lumigen_user"

// Store serialises a Session as JSON under a single key.
type Store struct {
	kv  kv.Store
	key string
}

func NewStore(s kv.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: s, key: key}
}

// Restore returns the stored session. Read or decode failures are logged and
// reported as "no session".
func (s *Store) Restore() (*Session, bool) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		log.Printf("failed loading stored user: %v", err)
		return nil, false
	}
	if !ok || raw == "" {
		return nil, false
	}
	sess, err := Normalize([]byte(raw))
	if err != nil {
		log.Printf("failed decoding stored user: %v", err)
		return nil, false
	}
	return &sess, true
}

func (s *Store) Persist(sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return &kv.StorageError{Op: "encode", Key: s.key, Err: err}
	}
	return s.kv.Set(s.key, string(data))
}

func (s *Store) Clear() error {
	return s.kv.Remove(s.key)
}

// Manager is the explicit session context handed to every screen. Storage is
// best-effort: failures are logged and never block login or logout.
type Manager struct {
	mu      sync.RWMutex
	store   *Store
	current *Session
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// Init restores the persisted session, if any.
func (m *Manager) Init() (Session, bool) {
	sess, ok := m.store.Restore()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = sess
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

func (m *Manager) Login(sess Session) {
	if err := m.store.Persist(sess); err != nil {
		log.Printf("failed saving user: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &sess
}

// Logout clears both the stored and the in-memory session.
func (m *Manager) Logout() {
	if err := m.store.Clear(); err != nil {
		log.Printf("failed clearing user: %v", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
}

func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}
