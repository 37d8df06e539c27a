package chat

import (
	"context"
	"time"
)

// State is the lifecycle of one in-flight reply.
type State int

const (
	StateIdle State = iota
	StatePending
	StateRevealing
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateRevealing:
		return "revealing"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type TypewriterConfig struct {
	// ThinkingText is shown in the placeholder until the reveal starts.
	ThinkingText string
	// ThinkingDelay models response latency before the first reveal tick.
	ThinkingDelay time.Duration
	Tick          time.Duration
	// Chunk is the number of runes revealed per tick.
	Chunk int
}

func DefaultTypewriterConfig() TypewriterConfig {
	return TypewriterConfig{
		ThinkingText:  "Pensando...",
		ThinkingDelay: 600 * time.Millisecond,
		Tick:          20 * time.Millisecond,
		Chunk:         3,
	}
}

func (c TypewriterConfig) withDefaults() TypewriterConfig {
	d := DefaultTypewriterConfig()
	if c.ThinkingText == "" {
		c.ThinkingText = d.ThinkingText
	}
	if c.ThinkingDelay < 0 {
		c.ThinkingDelay = 0
	}
	if c.Tick <= 0 {
		c.Tick = d.Tick
	}
	if c.Chunk <= 0 {
		c.Chunk = d.Chunk
	}
	return c
}

// reveal is the cancellable handle of one reply: the pending delay, the
// reveal ticker and the progress made so far.
type reveal struct {
	conversationID string
	question       Message
	placeholder    Message
	history        []Message

	state  State
	text   []rune
	shown  int
	ticks  int
	cancel context.CancelFunc
}

// next grows the revealed prefix by chunk runes and reports whether the full
// text is now visible.
func (r *reveal) next(chunk int) (string, bool) {
	r.shown += chunk
	if r.shown > len(r.text) {
		r.shown = len(r.text)
	}
	r.ticks++
	return string(r.text[:r.shown]), r.shown == len(r.text)
}

// Frames returns the successive contents the typewriter shows for text, one
// per tick. The last frame is always the full text.
func Frames(text string, chunk int) []string {
	if chunk <= 0 {
		chunk = DefaultTypewriterConfig().Chunk
	}
	r := &reveal{text: []rune(text)}
	var out []string
	for r.shown < len(r.text) {
		s, _ := r.next(chunk)
		out = append(out, s)
	}
	return out
}
