// Package auth logs users in against the backend's JSON bearer-token
// endpoint (POST /api/auth/login).
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"lumigen/internal/api"
	"lumigen/internal/session"
)

const loginFailedMessage = "Email ou senha inválidos"

// ValidationError reports a required field left empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "Por favor, preencha o email e a senha."
}

// DemoAccount is answered locally, without contacting the backend.
type DemoAccount struct {
	Email    string
	Password string
	Token    string
	Name     string
}

type Client struct {
	baseURL string
	http    *http.Client
	demo    *DemoAccount
}

func NewClient(baseURL string, timeout time.Duration, demo *DemoAccount) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		demo:    demo,
	}
}

// Login returns the normalised session. Failures are either a
// *ValidationError or an *api.NetworkError whose message can be shown to the
// user as is.
func (c *Client) Login(ctx context.Context, email, password string) (session.Session, error) {
	email = strings.TrimSpace(email)
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return session.Session{}, &ValidationError{Fields: missing}
	}

	if d := c.demo; d != nil && d.Email != "" && email == d.Email && password == d.Password {
		return session.Session{
			Token: d.Token,
			User:  session.Profile{Email: d.Email, Name: d.Name},
		}, nil
	}

	var raw json.RawMessage
	err := api.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/api/auth/login",
		api.LoginRequest{Email: email, Password: password}, &raw, loginFailedMessage)
	if err != nil {
		return session.Session{}, err
	}
	sess, err := session.Normalize(raw)
	if err != nil {
		return session.Session{}, &api.NetworkError{Message: "invalid login response", Err: err}
	}
	return sess, nil
}
