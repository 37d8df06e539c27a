// Package chat implements the conversation list, the message timeline of the
// active conversation and the typewriter that streams assistant replies into it.
package chat

import (
	"fmt"
	"time"
)

// Role tags a message as written by the user or by the assistant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

func (r *Role) UnmarshalText(b []byte) error {
	v := Role(b)
	if !v.Valid() {
		return fmt.Errorf("unknown message role: %q", string(b))
	}
	*r = v
	return nil
}

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c Conversation) clone() Conversation {
	c.Messages = append([]Message(nil), c.Messages...)
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	return c
}

const (
	DefaultTitle  = "Nova Conversa"
	titleMaxRunes = 30
	titleEllipsis = "..."
)

// TitleFromText derives a conversation title from the first message.
func TitleFromText(text string) string {
	r := []rune(text)
	if len(r) <= titleMaxRunes {
		return text
	}
	return string(r[:titleMaxRunes]) + titleEllipsis
}

// SampleConversations returns the demo conversations shown in a fresh sidebar.
func SampleConversations(now time.Time) []Conversation {
	day := 24 * time.Hour
	titles := []string{
		"Introdução ao React Native",
		"Como funciona o LangChain?",
		"Dúvidas sobre JavaScript",
	}
	out := make([]Conversation, 0, len(titles))
	for i, title := range titles {
		at := now.Add(-time.Duration(i+1) * day)
		out = append(out, Conversation{
			ID:        fmt.Sprintf("%d", i+1),
			Title:     title,
			Messages:  []Message{},
			CreatedAt: at,
			UpdatedAt: at,
		})
	}
	return out
}
