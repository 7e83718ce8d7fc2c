package ai

import (
	"context"
	"testing"

	"astro-soulmate/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedResponderDeltas(t *testing.T) {
	r := NewScriptedResponder()
	ctx := context.Background()

	cases := []struct {
		message string
		delta   int
	}{
		{"I love spending time with you", 3},
		{"i miss you so much", 3},
		{"sorry about yesterday", 2},
		{"I hate this", -4},
		{"whatever", -2},
		{"how was your day?", 1},
		{"just got home", 1},
	}

	for _, tc := range cases {
		reply, err := r.Generate(ctx, Prompt{Score: 50, Message: tc.message})
		require.NoError(t, err, tc.message)
		assert.Equal(t, tc.delta, reply.ScoreChange, tc.message)
		assert.NotEmpty(t, reply.Text)
		assert.NotEmpty(t, reply.StatusLabel)
	}
}

func TestScriptedResponderLabels(t *testing.T) {
	assert.Equal(t, "Distant", scriptedLabel(5))
	assert.Equal(t, "Guarded", scriptedLabel(25))
	assert.Equal(t, "Neutral", scriptedLabel(50))
	assert.Equal(t, "Curious", scriptedLabel(65))
	assert.Equal(t, "Smitten", scriptedLabel(90))
}

func TestScriptedResponderDeterministic(t *testing.T) {
	r := NewScriptedResponder()
	ctx := context.Background()

	first, err := r.Generate(ctx, Prompt{Score: 70, Message: "tell me a secret?"})
	require.NoError(t, err)
	second, err := r.Generate(ctx, Prompt{Score: 70, Message: "tell me a secret?"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecentHistoryWindow(t *testing.T) {
	short := []models.ChatMessage{{Role: models.RoleUser, Content: "hi"}}
	assert.Equal(t, short, recentHistory(short))

	long := make([]models.ChatMessage, 35)
	for i := range long {
		long[i] = models.ChatMessage{Role: models.RoleUser, Content: string(rune('a' + i%26))}
	}
	windowed := recentHistory(long)
	require.Len(t, windowed, historyWindow)
	assert.Equal(t, long[len(long)-historyWindow:], windowed)
}
