package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"lumigen/internal/course"
	"lumigen/internal/responder"
	"lumigen/internal/session"
)

type AskParams struct {
	Question string `json:"question" mcp:"question for the study assistant"`
}

type CoursesParams struct {
	UserID   string `json:"user_id,omitempty" mcp:"backend user id; sample courses are listed when empty"`
	Token    string `json:"token,omitempty" mcp:"bearer token of the user"`
	Expanded bool   `json:"expanded,omitempty" mcp:"list every course instead of the first three"`
}

type lumigenTools struct {
	simulator *responder.Simulator
	courses   *course.Client
}

func (t *lumigenTools) Ask(_ context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[AskParams]) (*mcp.CallToolResultFor[any], error) {
	q := strings.TrimSpace(params.Arguments.Question)
	if q == "" {
		return errorResult("question is required"), nil
	}
	log.Printf("MCP: lumigen_ask %q", q)
	return textResult(t.simulator.Respond(q)), nil
}

func (t *lumigenTools) Courses(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[CoursesParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	sess := session.Session{Token: args.Token, User: session.Profile{ID: args.UserID}}
	list := course.Visible(t.courses.ForSession(ctx, sess), args.Expanded)
	if len(list) == 0 {
		return textResult("Nenhum curso encontrado."), nil
	}
	var sb strings.Builder
	for _, c := range list {
		fmt.Fprintf(&sb, "%s - %s (%d%%)\n", c.ID, c.Title, c.Progress)
	}
	return textResult(sb.String()), nil
}

func textResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
