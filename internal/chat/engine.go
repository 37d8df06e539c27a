package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("a reply is still in progress")
)

// FallbackReply is streamed when the responder fails, so the loading state
// always ends.
const FallbackReply = "Desculpe, não consegui gerar uma resposta agora. Tente novamente em instantes."

// Request is what a Responder gets to answer: the question plus the visible
// messages that precede it.
type Request struct {
	ConversationID string
	Question       string
	History        []Message
}

// Responder produces the assistant reply. It is the seam where a real
// inference backend replaces the simulator.
type Responder interface {
	Reply(ctx context.Context, req Request) (string, error)
}

type EventKind int

const (
	// EventPlaceholder: the thinking placeholder was appended.
	EventPlaceholder EventKind = iota
	// EventUpdate: the placeholder content grew by one tick.
	EventUpdate
	// EventCommitted: the reply is complete and the pair was stored.
	EventCommitted
	// EventCancelled: the reply was abandoned before completion.
	EventCancelled
)

type Event struct {
	Kind           EventKind
	ConversationID string
	// Message is the assistant message in its current state.
	Message Message
	// Question is the user message being answered.
	Question Message
}

type Listener func(Event)

type Option func(*Engine)

func WithTypewriter(cfg TypewriterConfig) Option {
	return func(e *Engine) { e.cfg = cfg.withDefaults() }
}

func WithListener(l Listener) Option {
	return func(e *Engine) { e.listener = l }
}

func WithRepository(r *Repository) Option {
	return func(e *Engine) { e.repo = r }
}

// Engine owns one chat screen: the conversation repository, the visible
// timeline and at most one in-flight reply.
type Engine struct {
	mu        sync.Mutex
	cfg       TypewriterConfig
	repo      *Repository
	timeline  *Timeline
	responder Responder
	listener  Listener

	inflight *reveal
	wg       sync.WaitGroup
}

func NewEngine(responder Responder, opts ...Option) *Engine {
	e := &Engine{
		cfg:       DefaultTypewriterConfig(),
		repo:      NewRepository(),
		timeline:  NewTimeline(),
		responder: responder,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Send appends the user message and starts the reply. A conversation is
// created first when none is active.
func (e *Engine) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}

	e.mu.Lock()
	if e.inflight != nil {
		e.mu.Unlock()
		return Message{}, ErrBusy
	}
	convID, ok := e.repo.ActiveID()
	if !ok {
		conv := e.repo.Create(TitleFromText(text))
		convID = conv.ID
		e.timeline.Replace(nil)
	}
	history := e.timeline.Messages()
	question := e.timeline.AppendUser(text)
	placeholder := e.timeline.AppendAssistantPlaceholder(uuid.NewString(), e.cfg.ThinkingText)

	rctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &reveal{
		conversationID: convID,
		question:       question,
		placeholder:    placeholder,
		history:        history,
		state:          StatePending,
		cancel:         cancel,
	}
	e.inflight = r
	e.wg.Add(1)
	e.mu.Unlock()

	e.emit(Event{Kind: EventPlaceholder, ConversationID: convID, Message: placeholder, Question: question})
	go e.run(rctx, r)
	return question, nil
}

func (e *Engine) run(ctx context.Context, r *reveal) {
	defer e.wg.Done()

	timer := time.NewTimer(e.cfg.ThinkingDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	reply, err := e.responder.Reply(ctx, Request{
		ConversationID: r.conversationID,
		Question:       r.question.Content,
		History:        r.history,
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Printf("responder failed for conversation %s: %v", r.conversationID, err)
		reply = FallbackReply
	}

	if !e.startReveal(r, reply) {
		return
	}

	ticker := time.NewTicker(e.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.tick(r) {
				return
			}
		}
	}
}

// startReveal moves r to Revealing. It returns false when r was superseded or
// when the reply is empty and got committed straight away.
func (e *Engine) startReveal(r *reveal, reply string) bool {
	e.mu.Lock()
	if e.inflight != r {
		e.mu.Unlock()
		return false
	}
	r.text = []rune(reply)
	r.state = StateRevealing
	if len(r.text) > 0 {
		e.mu.Unlock()
		return true
	}
	ev := e.commitLocked(r, "")
	e.mu.Unlock()
	e.emit(ev)
	return false
}

// tick reveals the next chunk. It returns false once the reveal is over or
// no longer the active one.
func (e *Engine) tick(r *reveal) bool {
	e.mu.Lock()
	if e.inflight != r {
		e.mu.Unlock()
		return false
	}
	content, done := r.next(e.cfg.Chunk)
	e.timeline.UpdateContent(r.placeholder.ID, content)
	events := []Event{{
		Kind:           EventUpdate,
		ConversationID: r.conversationID,
		Message:        withContent(r.placeholder, content),
		Question:       r.question,
	}}
	if done {
		events = append(events, e.commitLocked(r, content))
	}
	e.mu.Unlock()

	for _, ev := range events {
		e.emit(ev)
	}
	return !done
}

func (e *Engine) commitLocked(r *reveal, content string) Event {
	final := withContent(r.placeholder, content)
	e.timeline.UpdateContent(final.ID, content)
	if !e.repo.Commit(r.conversationID, r.question, final) {
		log.Printf("conversation %s is gone, reply not stored", r.conversationID)
	}
	r.state = StateCommitted
	r.cancel()
	e.inflight = nil
	return Event{Kind: EventCommitted, ConversationID: r.conversationID, Message: final, Question: r.question}
}

// cancelLocked abandons the in-flight reply, if any.
func (e *Engine) cancelLocked() (Event, bool) {
	r := e.inflight
	if r == nil {
		return Event{}, false
	}
	r.cancel()
	r.state = StateCancelled
	e.inflight = nil
	return Event{Kind: EventCancelled, ConversationID: r.conversationID, Message: r.placeholder, Question: r.question}, true
}

// NewConversation creates and activates an empty conversation, abandoning any
// reply in flight.
func (e *Engine) NewConversation(title string) Conversation {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	e.mu.Lock()
	ev, cancelled := e.cancelLocked()
	conv := e.repo.Create(title)
	e.timeline.Replace(nil)
	e.mu.Unlock()

	if cancelled {
		e.emit(ev)
	}
	return conv
}

// Select shows the committed messages of conversation id. Unknown ids leave
// everything untouched. Selecting the conversation that is already active
// keeps its timeline, including a reply in flight.
func (e *Engine) Select(id string) ([]Message, bool) {
	e.mu.Lock()
	if active, ok := e.repo.ActiveID(); ok && active == id {
		msgs := e.timeline.Messages()
		e.mu.Unlock()
		return msgs, true
	}
	if _, ok := e.repo.Get(id); !ok {
		e.mu.Unlock()
		return nil, false
	}
	ev, cancelled := e.cancelLocked()
	msgs, _ := e.repo.Select(id)
	e.timeline.Replace(msgs)
	e.mu.Unlock()

	if cancelled {
		e.emit(ev)
	}
	return msgs, true
}

// Delete removes conversation id. Deleting the active conversation clears the
// timeline and abandons its reply.
func (e *Engine) Delete(id string) bool {
	e.mu.Lock()
	if _, ok := e.repo.Get(id); !ok {
		e.mu.Unlock()
		return false
	}
	var (
		ev        Event
		cancelled bool
	)
	if e.repo.Delete(id) {
		ev, cancelled = e.cancelLocked()
		e.timeline.Replace(nil)
	}
	e.mu.Unlock()

	if cancelled {
		e.emit(ev)
	}
	return true
}

func (e *Engine) Rename(id, title string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repo.Rename(id, title)
}

func (e *Engine) Seed(convs ...Conversation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repo.Seed(convs...)
}

func (e *Engine) Conversations() []Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repo.List()
}

func (e *Engine) Conversation(id string) (Conversation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repo.Get(id)
}

func (e *Engine) ActiveID() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.repo.ActiveID()
}

func (e *Engine) Timeline() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeline.Messages()
}

// Busy reports whether a reply is in flight; input stays disabled meanwhile.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inflight != nil
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight == nil {
		return StateIdle
	}
	return e.inflight.state
}

// Close abandons the reply in flight and waits for its goroutine to exit.
func (e *Engine) Close() {
	e.mu.Lock()
	ev, cancelled := e.cancelLocked()
	e.mu.Unlock()
	if cancelled {
		e.emit(ev)
	}
	e.wg.Wait()
}

func (e *Engine) emit(ev Event) {
	if e.listener != nil {
		e.listener(ev)
	}
}

func withContent(m Message, content string) Message {
	m.Content = content
	return m
}
