package telegram

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lumigen/internal/chat"
	"lumigen/internal/course"
	"lumigen/internal/kv"
	"lumigen/internal/session"
	"lumigen/internal/storage"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (session.Session, error)
}

type CourseLister interface {
	ForSession(ctx context.Context, s session.Session) []course.Course
}

// ResponderFactory builds the chat responder for a logged-in user.
type ResponderFactory func(s session.Session) chat.Responder

type Options struct {
	Auth         Authenticator
	Courses      CourseLister
	KV           kv.Store
	NewResponder ResponderFactory
	Typewriter   chat.TypewriterConfig
	// EditInterval throttles how often a streaming reply is edited.
	EditInterval time.Duration
	// SessionKey is suffixed with the chat id.
	SessionKey  string
	SeedSamples bool
	Recorder    storage.Recorder
	AdminChatID int64
}

// chatState is everything one Telegram chat sees: its session and, while
// logged in, its chat engine.
type chatState struct {
	chatID   int64
	sessions *session.Manager
	engine   *chat.Engine
	expanded bool
}

type Bot struct {
	api  *tgbotapi.BotAPI
	s    sender
	opts Options
	now  func() time.Time

	mu    sync.Mutex
	chats map[int64]*chatState
}

func New(botToken string, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPISender{api: api}, opts)
	b.api = api
	return b, nil
}

func newBot(s sender, opts Options) *Bot {
	if opts.KV == nil {
		opts.KV = kv.NewMemoryStore()
	}
	if opts.SessionKey == "" {
		opts.SessionKey = session.DefaultKey
	}
	if opts.EditInterval <= 0 {
		opts.EditInterval = time.Second
	}
	return &Bot{s: s, opts: opts, now: time.Now, chats: make(map[int64]*chatState)}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop abandons every reply in flight.
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, cs := range b.chats {
		if cs.engine != nil {
			cs.engine.Close()
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
			return
		}
		b.handleText(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// chat returns the state of chatID, restoring its persisted session on
// first use.
func (b *Bot) chat(chatID int64) *chatState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cs, ok := b.chats[chatID]; ok {
		return cs
	}
	key := b.opts.SessionKey + ":" + strconv.FormatInt(chatID, 10)
	cs := &chatState{
		chatID:   chatID,
		sessions: session.NewManager(session.NewStore(b.opts.KV, key)),
	}
	if sess, ok := cs.sessions.Init(); ok {
		log.Printf("restored session for chat %d (%s)", chatID, sess.User.DisplayName())
		b.startEngine(cs, sess)
	}
	b.chats[chatID] = cs
	return cs
}

func (b *Bot) startEngine(cs *chatState, sess session.Session) {
	userID := sess.User.ID
	if userID == "" {
		userID = strconv.FormatInt(cs.chatID, 10)
	}
	st := newStream(b, cs.chatID, userID)
	cs.engine = chat.NewEngine(b.opts.NewResponder(sess),
		chat.WithTypewriter(b.opts.Typewriter),
		chat.WithListener(st.handle),
	)
	if b.opts.SeedSamples {
		cs.engine.Seed(chat.SampleConversations(b.now())...)
	}
}

func (b *Bot) stopEngine(cs *chatState) {
	if cs.engine == nil {
		return
	}
	cs.engine.Close()
	cs.engine = nil
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.s.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(kb.InlineKeyboard) > 0 {
		msg.ReplyMarkup = kb
	}
	if _, err := b.s.Send(msg); err != nil {
		log.Printf("failed to send message: %v", err)
	}
}

func userLabel(cs *chatState) string {
	if sess, ok := cs.sessions.Current(); ok {
		return sess.User.DisplayName()
	}
	return fmt.Sprintf("chat %d", cs.chatID)
}
