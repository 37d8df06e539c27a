package telegram

import (
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"lumigen/internal/chat"
	"lumigen/internal/storage"
)

const (
	emptyReplyText = "(sem resposta)"
	cancelledText  = "Resposta cancelada."
)

// streamed is the Telegram message a reply is being revealed into.
type streamed struct {
	messageID int
	last      string
	lastEdit  time.Time
}

// stream renders engine events by sending the placeholder once and editing
// it as the reveal progresses, at most once per edit interval.
type stream struct {
	bot    *Bot
	chatID int64
	userID string

	mu   sync.Mutex
	msgs map[string]*streamed
}

func newStream(b *Bot, chatID int64, userID string) *stream {
	return &stream{bot: b, chatID: chatID, userID: userID, msgs: make(map[string]*streamed)}
}

func (s *stream) handle(ev chat.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Kind {
	case chat.EventPlaceholder:
		m, err := s.bot.s.Send(tgbotapi.NewMessage(s.chatID, ev.Message.Content))
		if err != nil {
			log.Printf("failed to send placeholder to chat %d: %v", s.chatID, err)
			return
		}
		s.msgs[ev.Message.ID] = &streamed{messageID: m.MessageID, last: ev.Message.Content, lastEdit: s.bot.now()}
	case chat.EventUpdate:
		st, ok := s.msgs[ev.Message.ID]
		if !ok || s.bot.now().Sub(st.lastEdit) < s.bot.opts.EditInterval {
			return
		}
		s.edit(st, ev.Message.Content)
	case chat.EventCommitted:
		text := ev.Message.Content
		if text == "" {
			text = emptyReplyText
		}
		if st, ok := s.msgs[ev.Message.ID]; ok {
			s.edit(st, text)
			delete(s.msgs, ev.Message.ID)
		} else {
			s.bot.sendMessage(s.chatID, text)
		}
		s.record(ev)
	case chat.EventCancelled:
		if st, ok := s.msgs[ev.Message.ID]; ok {
			s.edit(st, cancelledText)
			delete(s.msgs, ev.Message.ID)
		}
	}
}

func (s *stream) edit(st *streamed, text string) {
	if text == "" || text == st.last {
		return
	}
	if _, err := s.bot.s.Send(tgbotapi.NewEditMessageText(s.chatID, st.messageID, text)); err != nil {
		log.Printf("failed to edit message %d in chat %d: %v", st.messageID, s.chatID, err)
		return
	}
	st.last = text
	st.lastEdit = s.bot.now()
}

func (s *stream) record(ev chat.Event) {
	if s.bot.opts.Recorder == nil {
		return
	}
	err := s.bot.opts.Recorder.AppendInteraction(storage.Event{
		Timestamp:         s.bot.now().UTC(),
		UserID:            s.userID,
		ConversationID:    ev.ConversationID,
		UserMessage:       ev.Question.Content,
		AssistantResponse: ev.Message.Content,
		Source:            "telegram",
	})
	if err != nil {
		log.Printf("failed to record exchange: %v", err)
	}
}
