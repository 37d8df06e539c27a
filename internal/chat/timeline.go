package chat

import (
	"time"

	"github.com/google/uuid"
)

// Timeline is the list of messages currently on screen. It diverges from the
// repository copy while a reply is streaming.
type Timeline struct {
	now   func() time.Time
	newID func() string
	msgs  []Message
}

func NewTimeline() *Timeline {
	return &Timeline{now: time.Now, newID: uuid.NewString}
}

func (t *Timeline) AppendUser(text string) Message {
	m := Message{ID: t.newID(), Role: RoleUser, Content: text, Timestamp: t.now()}
	t.msgs = append(t.msgs, m)
	return m
}

func (t *Timeline) AppendAssistantPlaceholder(id, text string) Message {
	m := Message{ID: id, Role: RoleAssistant, Content: text, Timestamp: t.now()}
	t.msgs = append(t.msgs, m)
	return m
}

// UpdateContent replaces the content of message id; absent ids are ignored.
func (t *Timeline) UpdateContent(id, text string) bool {
	for i := range t.msgs {
		if t.msgs[i].ID == id {
			t.msgs[i].Content = text
			return true
		}
	}
	return false
}

func (t *Timeline) Replace(msgs []Message) {
	t.msgs = append([]Message(nil), msgs...)
}

func (t *Timeline) Messages() []Message {
	return append([]Message{}, t.msgs...)
}

func (t *Timeline) Len() int { return len(t.msgs) }
