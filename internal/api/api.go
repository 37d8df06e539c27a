// Package api holds the JSON contracts shared by the backend clients and the
// development server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"lumigen/internal/chat"
)

// HistoryLimit is how many previous messages are sent along with a question.
const HistoryLimit = 10

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type User struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type ChatRequest struct {
	Message        string         `json:"message"`
	ConversationID string         `json:"conversationId,omitempty"`
	UserID         string         `json:"userId"`
	History        []chat.Message `json:"history,omitempty"`
}

type ChatResponse struct {
	Message        string    `json:"message"`
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	Timestamp      time.Time `json:"timestamp"`
}

type ConversationList struct {
	Conversations []chat.Conversation `json:"conversations"`
}

type CreateConversationRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

type RenameConversationRequest struct {
	Title string `json:"title"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

// NetworkError is a transport failure or a non-2xx answer.
type NetworkError struct {
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Status != 0:
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	default:
		return e.Message
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BearerClient returns an HTTP client that sends token as a bearer credential.
func BearerClient(token string, timeout time.Duration) *http.Client {
	base := &http.Client{Timeout: timeout}
	if token == "" {
		return base
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	c := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	c.Timeout = timeout
	return c
}

// DoJSON sends body (if any) as JSON and decodes a 2xx answer into out.
// Non-2xx answers become a NetworkError carrying the server message, or
// fallback when the body has none.
func DoJSON(ctx context.Context, c *http.Client, method, url string, body, out any, fallback string) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return &NetworkError{Message: fallback, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fallback
		var er ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil && er.Message != "" {
			msg = er.Message
		}
		return &NetworkError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &NetworkError{Message: fallback, Err: err}
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Status: resp.StatusCode, Message: "invalid response body", Err: err}
	}
	return nil
}

// TrimHistory keeps the last HistoryLimit messages.
func TrimHistory(msgs []chat.Message) []chat.Message {
	if len(msgs) <= HistoryLimit {
		return msgs
	}
	return msgs[len(msgs)-HistoryLimit:]
}
