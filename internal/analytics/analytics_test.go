package analytics

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"lumigen/internal/storage"
)

func TestAnalyzeDailyLogs(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{Timestamp: day.Add(2 * time.Hour), UserID: "u1", ConversationID: "c1", UserMessage: "oi", AssistantResponse: "olá", Source: "telegram"},
		{Timestamp: day.Add(3 * time.Hour), UserID: "u1", ConversationID: "c1", UserMessage: "python", AssistantResponse: "...", Source: "telegram"},
		{Timestamp: day.Add(4 * time.Hour), UserID: "u1", ConversationID: "c2", UserMessage: "java", AssistantResponse: "...", Source: "devserver"},
		{Timestamp: day.Add(5 * time.Hour), UserID: "u2", ConversationID: "c1", UserMessage: "oi", AssistantResponse: "...", Source: "telegram"},
		// next day
		{Timestamp: day.AddDate(0, 0, 1), UserID: "u3", ConversationID: "c9", UserMessage: "amanhã", AssistantResponse: "..."},
		// no user message
		{Timestamp: day.Add(6 * time.Hour), UserID: "u4", AssistantResponse: "[system]"},
	}

	stats := AnalyzeDailyLogs(events, day.Add(12*time.Hour))

	if stats.Date != "2024-01-15" {
		t.Fatalf("unexpected date %q", stats.Date)
	}
	if stats.TotalMessages != 4 {
		t.Fatalf("expected 4 messages, got %d", stats.TotalMessages)
	}
	if stats.UniqueUsers != 2 {
		t.Fatalf("expected 2 users, got %d", stats.UniqueUsers)
	}
	// u1/c1, u1/c2 and u2/c1 are distinct conversations
	if stats.Conversations != 3 {
		t.Fatalf("expected 3 conversations, got %d", stats.Conversations)
	}
	if stats.BySource["telegram"] != 3 || stats.BySource["devserver"] != 1 {
		t.Fatalf("unexpected by-source: %+v", stats.BySource)
	}
	u1 := stats.UserStats["u1"]
	if u1.Messages != 3 || u1.Conversations != 2 {
		t.Fatalf("unexpected u1 stats: %+v", u1)
	}
}

func TestAnalyzeDailyLogs_Empty(t *testing.T) {
	stats := AnalyzeDailyLogs(nil, time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC))
	if stats.TotalMessages != 0 || stats.UniqueUsers != 0 || stats.Conversations != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if !strings.Contains(stats.GenerateReportSummary(), "Mensagens: 0") {
		t.Fatalf("summary should report zero messages")
	}
}

func TestGenerateReportSummary(t *testing.T) {
	stats := &DailyStats{
		Date:          "2024-01-15",
		TotalMessages: 5,
		UniqueUsers:   2,
		Conversations: 3,
		BySource:      map[string]int{"telegram": 4, "devserver": 1},
		UserStats: map[string]UserStats{
			"u2": {UserID: "u2", Messages: 1, Conversations: 1},
			"u1": {UserID: "u1", Messages: 4, Conversations: 2},
		},
	}
	s := stats.GenerateReportSummary()
	for _, want := range []string{"2024-01-15", "Mensagens: 5", "Usuários únicos: 2", "Conversas ativas: 3", "- telegram: 4", "- u1: 4 mensagens em 2 conversas"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}
	if strings.Index(s, "- u1:") > strings.Index(s, "- u2:") {
		t.Fatalf("users should be listed in order:\n%s", s)
	}
}

func TestToJSON(t *testing.T) {
	stats := AnalyzeDailyLogs([]storage.Event{{Timestamp: time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC), UserID: "u1", UserMessage: "oi"}}, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	out, err := stats.ToJSON()
	if err != nil {
		t.Fatalf("to json: %v", err)
	}
	var back DailyStats
	if err := json.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.TotalMessages != 1 || back.UserStats["u1"].Messages != 1 {
		t.Fatalf("unexpected decoded stats: %+v", back)
	}
}
