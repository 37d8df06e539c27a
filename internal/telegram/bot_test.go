package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lumigen/internal/api"
	"lumigen/internal/auth"
	"lumigen/internal/chat"
	"lumigen/internal/course"
	"lumigen/internal/kv"
	"lumigen/internal/responder"
	"lumigen/internal/session"
	"lumigen/internal/storage"
)

type sent struct {
	edit      bool
	messageID int
	text      string
	keyboard  *tgbotapi.InlineKeyboardMarkup
}

type fakeSender struct {
	mu     sync.Mutex
	nextID int
	out    []sent
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.nextID++
		s := sent{messageID: f.nextID, text: m.Text}
		if kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
			s.keyboard = &kb
		}
		f.out = append(f.out, s)
		return tgbotapi.Message{MessageID: f.nextID}, nil
	case tgbotapi.EditMessageTextConfig:
		f.out = append(f.out, sent{edit: true, messageID: m.MessageID, text: m.Text, keyboard: m.ReplyMarkup})
		return tgbotapi.Message{MessageID: m.MessageID}, nil
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) all() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sent(nil), f.out...)
}

func (f *fakeSender) last() sent {
	all := f.all()
	if len(all) == 0 {
		return sent{}
	}
	return all[len(all)-1]
}

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, email, password string) (session.Session, error) {
	if email == "" || password == "" {
		return session.Session{}, &auth.ValidationError{Fields: []string{"email", "password"}}
	}
	if email != "ana@lumigen" || password != "secret" {
		return session.Session{}, &api.NetworkError{Status: 401, Message: "Email ou senha inválidos"}
	}
	return session.Session{Token: "tok", User: session.Profile{ID: "7", Name: "Ana", Email: email}}, nil
}

type fakeCourses struct{}

func (fakeCourses) ForSession(context.Context, session.Session) []course.Course {
	return append([]course.Course(nil), course.MockCourses...)
}

type chanRecorder struct {
	mu     sync.Mutex
	events []storage.Event
	ch     chan storage.Event
}

func newChanRecorder() *chanRecorder { return &chanRecorder{ch: make(chan storage.Event, 8)} }

func (r *chanRecorder) AppendInteraction(ev storage.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.ch <- ev
	return nil
}

func (r *chanRecorder) LoadInteractions() ([]storage.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storage.Event(nil), r.events...), nil
}

const chatID = int64(100)

func newTestBot(store kv.Store, rec storage.Recorder) (*Bot, *fakeSender) {
	fs := &fakeSender{}
	b := newBot(fs, Options{
		Auth:         fakeAuth{},
		Courses:      fakeCourses{},
		KV:           store,
		NewResponder: func(session.Session) chat.Responder { return responder.NewSimulator() },
		Typewriter: chat.TypewriterConfig{
			ThinkingText:  "Pensando...",
			ThinkingDelay: time.Millisecond,
			Tick:          time.Millisecond,
			Chunk:         16,
		},
		EditInterval: time.Hour,
		Recorder:     rec,
		AdminChatID:  999,
	})
	return b, fs
}

func textUpdate(id int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: id}, From: &tgbotapi.User{ID: id}, Text: text}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return tgbotapi.Update{Message: msg}
}

func callbackUpdate(id int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: id},
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: id}},
		Data:    data,
	}}
}

func loginAna(t *testing.T, b *Bot, fs *fakeSender) {
	t.Helper()
	b.handleUpdate(context.Background(), textUpdate(chatID, "/login ana@lumigen secret"))
	if !strings.Contains(fs.last().text, "Olá, Ana!") {
		t.Fatalf("expected home greeting, got %q", fs.last().text)
	}
}

func TestText_RequiresLogin(t *testing.T) {
	b, fs := newTestBot(nil, nil)
	b.handleUpdate(context.Background(), textUpdate(chatID, "oi"))
	if fs.last().text != loginFirstText {
		t.Fatalf("unexpected reply %q", fs.last().text)
	}
}

func TestLogin_ErrorsAreShown(t *testing.T) {
	b, fs := newTestBot(nil, nil)
	ctx := context.Background()

	b.handleUpdate(ctx, textUpdate(chatID, "/login"))
	if !strings.HasPrefix(fs.last().text, "Por favor, preencha o email e a senha.") {
		t.Fatalf("unexpected validation reply %q", fs.last().text)
	}
	b.handleUpdate(ctx, textUpdate(chatID, "/login ana@lumigen wrong"))
	if fs.last().text != "Email ou senha inválidos" {
		t.Fatalf("unexpected failure reply %q", fs.last().text)
	}
	if _, ok := b.chat(chatID).sessions.Current(); ok {
		t.Fatalf("no session expected after failed login")
	}
}

func TestLogin_HomeShowsThreeCourses(t *testing.T) {
	b, fs := newTestBot(nil, nil)
	loginAna(t, b, fs)
	home := fs.last().text
	for _, c := range course.MockCourses[:3] {
		if !strings.Contains(home, c.Title) {
			t.Fatalf("home missing %q:\n%s", c.Title, home)
		}
	}
	if strings.Contains(home, course.MockCourses[3].Title) {
		t.Fatalf("home should show only three courses:\n%s", home)
	}
}

func TestSession_RestoredAndCleared(t *testing.T) {
	store := kv.NewMemoryStore()
	b, fs := newTestBot(store, nil)
	loginAna(t, b, fs)
	if _, ok, _ := store.Get("lumigen_user:100"); !ok {
		t.Fatalf("session not persisted under the chat key")
	}

	b2, _ := newTestBot(store, nil)
	cs := b2.chat(chatID)
	sess, ok := cs.sessions.Current()
	if !ok || sess.User.Name != "Ana" || cs.engine == nil {
		t.Fatalf("session not restored: %+v", sess)
	}

	b2.handleUpdate(context.Background(), textUpdate(chatID, "/logout"))
	if _, ok, _ := store.Get("lumigen_user:100"); ok {
		t.Fatalf("session should be removed on logout")
	}
	if cs.engine != nil {
		t.Fatalf("engine should be torn down on logout")
	}
}

func TestChat_StreamsReplyIntoPlaceholder(t *testing.T) {
	rec := newChanRecorder()
	b, fs := newTestBot(nil, rec)
	loginAna(t, b, fs)

	b.handleUpdate(context.Background(), textUpdate(chatID, "Fale sobre python"))

	var ev storage.Event
	select {
	case ev = <-rec.ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("reply was not committed")
	}
	want := responder.NewSimulator().Respond("Fale sobre python")
	if ev.UserMessage != "Fale sobre python" || ev.AssistantResponse != want || ev.UserID != "7" || ev.Source != "telegram" {
		t.Fatalf("unexpected recorded event: %+v", ev)
	}

	all := fs.all()
	var placeholder sent
	var edits []sent
	for _, s := range all {
		if !s.edit && s.text == "Pensando..." {
			placeholder = s
		}
		if s.edit && s.messageID == placeholder.messageID {
			edits = append(edits, s)
		}
	}
	if placeholder.messageID == 0 {
		t.Fatalf("placeholder not sent: %+v", all)
	}
	// the edit interval is long, so only the final content is written
	if len(edits) != 1 || edits[0].text != want {
		t.Fatalf("unexpected edits: %+v", edits)
	}

	convs := b.chat(chatID).engine.Conversations()
	if len(convs) != 1 || convs[0].Title != "Fale sobre python" || len(convs[0].Messages) != 2 {
		t.Fatalf("unexpected conversations: %+v", convs)
	}
}

func TestChats_SelectAndDelete(t *testing.T) {
	b, fs := newTestBot(nil, nil)
	ctx := context.Background()
	loginAna(t, b, fs)

	b.handleUpdate(ctx, textUpdate(chatID, "/new Estudos"))
	if fs.last().text != "Nova conversa: Estudos" {
		t.Fatalf("unexpected reply %q", fs.last().text)
	}
	b.handleUpdate(ctx, textUpdate(chatID, "/new"))
	b.handleUpdate(ctx, textUpdate(chatID, "/chats"))
	list := fs.last()
	if list.keyboard == nil || len(list.keyboard.InlineKeyboard) != 2 {
		t.Fatalf("expected two conversation rows, got %+v", list)
	}
	if !strings.HasPrefix(list.keyboard.InlineKeyboard[0][0].Text, "● ") {
		t.Fatalf("active conversation should be marked first: %+v", list.keyboard.InlineKeyboard)
	}

	estudos := b.chat(chatID).engine.Conversations()[1]
	b.handleUpdate(ctx, callbackUpdate(chatID, list.messageID, selectPrefix+estudos.ID))
	if !strings.HasPrefix(fs.last().text, "Estudos\n\nConversa vazia") {
		t.Fatalf("unexpected select reply %q", fs.last().text)
	}
	if id, _ := b.chat(chatID).engine.ActiveID(); id != estudos.ID {
		t.Fatalf("selected conversation not active")
	}

	b.handleUpdate(ctx, textUpdate(chatID, "/rename Revisão"))
	if c, _ := b.chat(chatID).engine.Conversation(estudos.ID); c.Title != "Revisão" {
		t.Fatalf("rename not applied: %+v", c)
	}

	b.handleUpdate(ctx, callbackUpdate(chatID, list.messageID, deletePrefix+estudos.ID))
	if fs.last().text != "Conversa excluída." {
		t.Fatalf("unexpected delete reply %q", fs.last().text)
	}
	if _, ok := b.chat(chatID).engine.ActiveID(); ok {
		t.Fatalf("deleting the active conversation should clear the selection")
	}
	b.handleUpdate(ctx, callbackUpdate(chatID, list.messageID, deletePrefix+estudos.ID))
	if fs.last().text != "Conversa não encontrada." {
		t.Fatalf("unexpected reply %q", fs.last().text)
	}
}

func TestMenu_ExpandAndCollapse(t *testing.T) {
	b, fs := newTestBot(nil, nil)
	ctx := context.Background()
	loginAna(t, b, fs)

	b.handleUpdate(ctx, textUpdate(chatID, "/menu"))
	menu := fs.last()
	if strings.Contains(menu.text, course.MockCourses[3].Title) || menu.keyboard == nil {
		t.Fatalf("collapsed menu expected: %+v", menu)
	}
	if btn := menu.keyboard.InlineKeyboard[0][0]; btn.Text != "Ver todos" {
		t.Fatalf("unexpected button %q", btn.Text)
	}

	b.handleUpdate(ctx, callbackUpdate(chatID, menu.messageID, coursesAll))
	expanded := fs.last()
	if !expanded.edit || expanded.messageID != menu.messageID {
		t.Fatalf("menu should be edited in place: %+v", expanded)
	}
	for _, c := range course.MockCourses {
		if !strings.Contains(expanded.text, c.Title) {
			t.Fatalf("expanded menu missing %q", c.Title)
		}
	}
	if expanded.keyboard.InlineKeyboard[0][0].Text != "Ver menos" {
		t.Fatalf("expected collapse button")
	}
}

func TestProfile(t *testing.T) {
	b, fs := newTestBot(nil, nil)
	loginAna(t, b, fs)
	b.handleUpdate(context.Background(), textUpdate(chatID, "/profile"))
	if out := fs.last().text; !strings.Contains(out, "Nome: Ana") || !strings.Contains(out, "Email: ana@lumigen") {
		t.Fatalf("unexpected profile %q", out)
	}
}

func TestFormatTranscript_KeepsMostRecent(t *testing.T) {
	long := strings.Repeat("a", maxTranscript)
	msgs := []chat.Message{
		{Role: chat.RoleUser, Content: "primeira"},
		{Role: chat.RoleAssistant, Content: long},
		{Role: chat.RoleUser, Content: "última"},
	}
	out := formatTranscript("T", msgs)
	if strings.Contains(out, "primeira") || !strings.HasSuffix(out, "Você: última") {
		t.Fatalf("unexpected transcript:\n%.80s", out)
	}
}

func TestSendDailyReport(t *testing.T) {
	rec := newChanRecorder()
	b, fs := newTestBot(nil, rec)
	rec.events = []storage.Event{{Timestamp: time.Now().UTC(), UserID: "7", ConversationID: "c1", UserMessage: "oi", Source: "telegram"}}

	b.handleUpdate(context.Background(), textUpdate(chatID, "/report"))
	if !strings.Contains(fs.last().text, "administrador") {
		t.Fatalf("non-admin should be refused: %q", fs.last().text)
	}

	if err := b.SendDailyReport(context.Background()); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(fs.last().text, "Mensagens: 1") {
		t.Fatalf("unexpected report %q", fs.last().text)
	}
}
