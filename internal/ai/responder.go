package ai

import (
	"context"

	"astro-soulmate/backend/internal/models"
)

// Prompt carries everything the language model needs for one exchange.
type Prompt struct {
	CharacterName string
	Gender        string
	SystemPrompt  string
	Age           int
	HasAge        bool
	// Score is the relationship score before this exchange; the model
	// conditions its tone on it.
	Score   int
	History []models.ChatMessage
	Message string
}

// Reply is the model's output for one exchange. ScoreChange and StatusLabel
// are opaque to everything downstream; nothing in this repo re-derives them.
type Reply struct {
	Text            string `json:"response"`
	ScoreChange     int    `json:"score_change"`
	StatusLabel     string `json:"status_label"`
	InternalThought string `json:"internal_thought,omitempty"`
}

// Responder produces the assistant reply and relationship delta for a chat
// exchange.
type Responder interface {
	Generate(ctx context.Context, prompt Prompt) (*Reply, error)
}

// historyWindow limits how much transcript is sent to the model.
const historyWindow = 20

func recentHistory(history []models.ChatMessage) []models.ChatMessage {
	if len(history) <= historyWindow {
		return history
	}
	return history[len(history)-historyWindow:]
}
