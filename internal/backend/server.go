// Package backend is a development implementation of the HTTP API the
// clients talk to: login, course listing, chat messages and conversation
// management.
package backend

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"lumigen/internal/chat"
	"lumigen/internal/course"
	"lumigen/internal/kv"
	"lumigen/internal/storage"
)

// Account is a user the server accepts at login.
type Account struct {
	ID       string
	Email    string
	Password string
	Name     string
	// Token, when set, is granted permanently instead of an expiring one.
	Token string
}

type Options struct {
	Port      int
	Accounts  []Account
	Responder chat.Responder
	KV        kv.Store
	// Recorder is optional.
	Recorder storage.Recorder
	// Courses lists the courses of a user; MockCourses for everyone when nil.
	Courses  func(userID string) []course.Course
	TokenTTL time.Duration
}

type Server struct {
	port      int
	accounts  map[string]Account
	responder chat.Responder
	recorder  storage.Recorder
	courses   func(userID string) []course.Course
	tokens    *TokenStore
	convs     *conversationStore
	now       func() time.Time
	server    *http.Server
}

func New(opts Options) *Server {
	if opts.KV == nil {
		opts.KV = kv.NewMemoryStore()
	}
	if opts.Courses == nil {
		opts.Courses = func(string) []course.Course { return append([]course.Course(nil), course.MockCourses...) }
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	s := &Server{
		port:      opts.Port,
		accounts:  make(map[string]Account),
		responder: opts.Responder,
		recorder:  opts.Recorder,
		courses:   opts.Courses,
		tokens:    NewTokenStore(opts.TokenTTL),
		convs:     newConversationStore(opts.KV),
		now:       time.Now,
	}
	for _, a := range opts.Accounts {
		s.accounts[strings.ToLower(a.Email)] = a
		if a.Token != "" {
			s.tokens.Grant(a.Token, a.ID)
		}
	}
	return s
}

// Tokens exposes the token store so the purge job can be scheduled.
func (s *Server) Tokens() *TokenStore { return s.tokens }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/users/{id}/courses", s.authenticated(s.handleCourses))
	mux.HandleFunc("POST /api/chat/message", s.authenticated(s.handleChatMessage))
	mux.HandleFunc("GET /api/conversations", s.authenticated(s.handleListConversations))
	mux.HandleFunc("POST /api/conversations", s.authenticated(s.handleCreateConversation))
	mux.HandleFunc("GET /api/conversations/{id}", s.authenticated(s.handleGetConversation))
	mux.HandleFunc("PATCH /api/conversations/{id}", s.authenticated(s.handleRenameConversation))
	mux.HandleFunc("DELETE /api/conversations/{id}", s.authenticated(s.handleDeleteConversation))
	return mux
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	log.Printf("dev server listening on http://localhost:%d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
