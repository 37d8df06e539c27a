package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "transcript.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}

	ev1 := Event{Timestamp: time.Unix(1, 0).UTC(), UserID: "u1", ConversationID: "c1", UserMessage: "oi", AssistantResponse: "olá"}
	ev2 := Event{Timestamp: time.Unix(2, 0).UTC(), UserID: "u2", ConversationID: "c2", UserMessage: "python", AssistantResponse: "Python é...", Source: "telegram"}
	if err := rec.AppendInteraction(ev1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := rec.AppendInteraction(ev2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	got, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].UserID != "u1" || got[1].ConversationID != "c2" || got[1].Source != "telegram" {
		t.Fatalf("unexpected events: %+v", got)
	}

	since, err := rec.LoadSince(time.Unix(2, 0).UTC())
	if err != nil {
		t.Fatalf("load since: %v", err)
	}
	if len(since) != 1 || since[0].UserID != "u2" {
		t.Fatalf("unexpected filtered events: %+v", since)
	}
}

func TestFileRecorder_SkipsMalformedLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "transcript.jsonl")
	if err := os.WriteFile(p, []byte("{broken\n\n{\"user_id\":\"u1\",\"user_message\":\"oi\"}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	got, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].UserMessage != "oi" {
		t.Fatalf("unexpected events: %+v", got)
	}
}
