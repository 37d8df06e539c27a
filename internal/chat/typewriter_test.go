package chat

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFrames_TickCountIsCeilOfLengthOverChunk(t *testing.T) {
	for _, tc := range []struct {
		text  string
		chunk int
		ticks int
	}{
		{"", 3, 0},
		{"a", 3, 1},
		{"abc", 3, 1},
		{"abcd", 3, 2},
		{strings.Repeat("x", 100), 3, 34},
		{strings.Repeat("x", 100), 7, 15},
	} {
		frames := Frames(tc.text, tc.chunk)
		if len(frames) != tc.ticks {
			t.Fatalf("Frames(len=%d, chunk=%d): want %d ticks, got %d", len(tc.text), tc.chunk, tc.ticks, len(frames))
		}
		if tc.ticks > 0 && frames[len(frames)-1] != tc.text {
			t.Fatalf("last frame must equal full text")
		}
	}
}

func TestFrames_GrowMonotonicallyOnRuneBoundaries(t *testing.T) {
	text := "Lógica de programação é ótima"
	frames := Frames(text, 3)
	prev := 0
	for _, f := range frames {
		if !utf8.ValidString(f) {
			t.Fatalf("frame split a rune: %q", f)
		}
		if !strings.HasPrefix(text, f) {
			t.Fatalf("frame is not a prefix: %q", f)
		}
		n := utf8.RuneCountInString(f)
		if n <= prev {
			t.Fatalf("frames must grow: %d -> %d", prev, n)
		}
		prev = n
	}
	if want := (utf8.RuneCountInString(text) + 2) / 3; len(frames) != want {
		t.Fatalf("want %d frames, got %d", want, len(frames))
	}
}

func TestTitleFromText(t *testing.T) {
	if got := TitleFromText("curto"); got != "curto" {
		t.Fatalf("short title changed: %q", got)
	}
	long := strings.Repeat("é", 31)
	if got := TitleFromText(long); got != strings.Repeat("é", 30)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}

func TestTypewriterConfig_WithDefaults(t *testing.T) {
	c := TypewriterConfig{Chunk: -1, Tick: 0, ThinkingDelay: -5}.withDefaults()
	d := DefaultTypewriterConfig()
	if c.Chunk != d.Chunk || c.Tick != d.Tick || c.ThinkingDelay != 0 || c.ThinkingText != d.ThinkingText {
		t.Fatalf("unexpected config: %+v", c)
	}
}
