package storage

import "time"

// Event is one committed chat exchange: the user's question and the full
// assistant reply, as stored in the conversation.
type Event struct {
	Timestamp         time.Time `json:"timestamp"`
	UserID            string    `json:"user_id"`
	ConversationID    string    `json:"conversation_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	// Source tells which front-end produced the exchange ("telegram", "devserver").
	Source string `json:"source,omitempty"`
}

// Recorder persists exchanges in chronological order.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
