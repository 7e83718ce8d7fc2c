package ai

import (
	"context"
	"fmt"
	"strings"
)

// ScriptedResponder is a deterministic stand-in used when no model service is
// configured, and in tests. Its score deltas and labels are as opaque to the
// rest of the system as a real model's would be.
type ScriptedResponder struct{}

// NewScriptedResponder creates the fallback responder.
func NewScriptedResponder() *ScriptedResponder {
	return &ScriptedResponder{}
}

// Generate produces a canned reply whose warmth tracks the current score.
func (s *ScriptedResponder) Generate(_ context.Context, prompt Prompt) (*Reply, error) {
	delta := scriptedDelta(prompt.Message)
	score := clamp(prompt.Score + delta)

	return &Reply{
		Text:            scriptedText(prompt.Message, score),
		ScoreChange:     delta,
		StatusLabel:     scriptedLabel(score),
		InternalThought: fmt.Sprintf("They said %q; I feel %s about it.", prompt.Message, scriptedMood(delta)),
	}, nil
}

func scriptedDelta(message string) int {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "love") || strings.Contains(lower, "miss you"):
		return 3
	case strings.Contains(lower, "sorry"):
		return 2
	case strings.Contains(lower, "hate") || strings.Contains(lower, "leave me alone"):
		return -4
	case strings.Contains(lower, "boring") || strings.Contains(lower, "whatever"):
		return -2
	case strings.HasSuffix(strings.TrimSpace(message), "?"):
		return 1
	default:
		return 1
	}
}

func scriptedLabel(score int) string {
	switch {
	case score < 20:
		return "Distant"
	case score < 40:
		return "Guarded"
	case score < 60:
		return "Neutral"
	case score < 80:
		return "Curious"
	default:
		return "Smitten"
	}
}

func scriptedText(message string, score int) string {
	switch {
	case score >= 80:
		return "You always know what to say. Tell me more, I was just thinking of you."
	case score >= 60:
		return "That's really interesting! I like where this is going."
	case score >= 40:
		return fmt.Sprintf("Hm, %q... I hear you. What made you bring that up?", truncate(message, 40))
	default:
		return "I'm not sure how to feel about that right now."
	}
}

func scriptedMood(delta int) string {
	switch {
	case delta > 1:
		return "warm"
	case delta > 0:
		return "curious"
	case delta < -2:
		return "hurt"
	default:
		return "uneasy"
	}
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
