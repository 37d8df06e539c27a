package chat

import (
	"time"

	"github.com/google/uuid"
)

// Repository is the ordered, most-recent-first list of conversations plus the
// active selection. It is not safe for concurrent use; Engine serialises
// access to it.
type Repository struct {
	now   func() time.Time
	newID func() string

	conversations []*Conversation
	activeID      string
}

func NewRepository() *Repository {
	return &Repository{now: time.Now, newID: uuid.NewString}
}

// Seed appends existing conversations after the current ones, keeping their order.
func (r *Repository) Seed(convs ...Conversation) {
	for _, c := range convs {
		c := c.clone()
		if c.UpdatedAt.Before(c.CreatedAt) {
			c.UpdatedAt = c.CreatedAt
		}
		r.conversations = append(r.conversations, &c)
	}
}

// Create prepends a new empty conversation and makes it active.
func (r *Repository) Create(title string) Conversation {
	now := r.now()
	c := &Conversation{
		ID:        r.newID(),
		Title:     title,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.conversations = append([]*Conversation{c}, r.conversations...)
	r.activeID = c.ID
	return c.clone()
}

// Select makes id active and returns its messages. Unknown ids are ignored.
func (r *Repository) Select(id string) ([]Message, bool) {
	c := r.find(id)
	if c == nil {
		return nil, false
	}
	r.activeID = id
	return c.clone().Messages, true
}

// Delete removes the conversation and reports whether it was the active one.
func (r *Repository) Delete(id string) (wasActive bool) {
	for i, c := range r.conversations {
		if c.ID != id {
			continue
		}
		r.conversations = append(r.conversations[:i], r.conversations[i+1:]...)
		if r.activeID == id {
			r.activeID = ""
			return true
		}
		return false
	}
	return false
}

// Commit appends a user/assistant pair and advances UpdatedAt. It returns
// false when the conversation no longer exists.
func (r *Repository) Commit(id string, user, assistant Message) bool {
	c := r.find(id)
	if c == nil {
		return false
	}
	c.Messages = append(c.Messages, user, assistant)
	now := r.now()
	if !now.After(c.UpdatedAt) {
		now = c.UpdatedAt.Add(time.Nanosecond)
	}
	c.UpdatedAt = now
	return true
}

func (r *Repository) Rename(id, title string) bool {
	c := r.find(id)
	if c == nil {
		return false
	}
	c.Title = title
	return true
}

func (r *Repository) Get(id string) (Conversation, bool) {
	c := r.find(id)
	if c == nil {
		return Conversation{}, false
	}
	return c.clone(), true
}

func (r *Repository) List() []Conversation {
	out := make([]Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		out = append(out, c.clone())
	}
	return out
}

func (r *Repository) ActiveID() (string, bool) {
	return r.activeID, r.activeID != ""
}

func (r *Repository) find(id string) *Conversation {
	for _, c := range r.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}
