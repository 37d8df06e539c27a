// Package course lists the courses a user is enrolled in.
package course

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lumigen/internal/api"
	"lumigen/internal/session"
)

// CollapsedCount is how many courses the menu shows before it is expanded.
const CollapsedCount = 3

type Course struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Progress int    `json:"progress"`
}

// MockCourses stand in for the real list while the user has no id or token.
var MockCourses = []Course{
	{ID: "1", Title: "Curso de React Native", Progress: 45},
	{ID: "2", Title: "Introdução a JavaScript", Progress: 80},
	{ID: "3", Title: "Design de UI/UX", Progress: 10},
	{ID: "4", Title: "Banco de Dados SQL", Progress: 0},
	{ID: "5", Title: "API com Spring Boot", Progress: 25},
	{ID: "6", Title: "Metodologias Ágeis", Progress: 50},
}

type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

// FetchUserCourses calls GET /api/users/{id}/courses. Any failure is logged
// and yields an empty list.
func (c *Client) FetchUserCourses(ctx context.Context, userID, token string) []Course {
	endpoint := fmt.Sprintf("%s/api/users/%s/courses", c.baseURL, url.PathEscape(userID))
	var out []Course
	if err := api.DoJSON(ctx, api.BearerClient(token, c.timeout), http.MethodGet, endpoint, nil, &out, "Erro ao buscar cursos"); err != nil {
		log.Printf("fetch courses for user %s failed: %v", userID, err)
		return []Course{}
	}
	if out == nil {
		out = []Course{}
	}
	return out
}

// ForSession returns the mock list when the session lacks an id or token,
// and the backend list otherwise.
func (c *Client) ForSession(ctx context.Context, s session.Session) []Course {
	if s.User.ID == "" || s.Token == "" {
		return append([]Course(nil), MockCourses...)
	}
	return c.FetchUserCourses(ctx, s.User.ID, s.Token)
}

// Visible returns the courses the menu displays.
func Visible(courses []Course, expanded bool) []Course {
	if expanded || len(courses) <= CollapsedCount {
		return courses
	}
	return courses[:CollapsedCount]
}
