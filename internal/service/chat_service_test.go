package service

import (
	"strings"
	"testing"
	"time"

	"astro-soulmate/backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-5))
	assert.Equal(t, 0, clampScore(0))
	assert.Equal(t, 42, clampScore(42))
	assert.Equal(t, 100, clampScore(100))
	assert.Equal(t, 100, clampScore(107))
}

func TestSessionTitle(t *testing.T) {
	assert.Equal(t, "hey there", sessionTitle("hey there"))

	long := strings.Repeat("a", 80)
	title := sessionTitle(long)
	assert.Equal(t, strings.Repeat("a", 50)+"...", title)

	// Multibyte input must not be cut mid-rune
	unicodeMsg := strings.Repeat("héllo ", 12)
	title = sessionTitle(unicodeMsg)
	assert.True(t, strings.HasSuffix(title, "..."))
	assert.Equal(t, 50, len([]rune(strings.TrimSuffix(title, "..."))))
}

func TestBuildSystemPrompt(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	birth := models.BirthData{
		Name: "Luna", Year: 1998, Month: 3, Day: 14,
		City: "Rome", Nation: "IT",
	}

	prompt := BuildSystemPrompt("Luna", "female", birth, now)
	assert.Contains(t, prompt, "You are Luna")
	assert.Contains(t, prompt, "girlfriend")
	assert.Contains(t, prompt, "1998-03-14")
	assert.Contains(t, prompt, "Rome, IT")
	assert.Contains(t, prompt, "You are 27 years old.")

	prompt = BuildSystemPrompt("Kai", "male", models.BirthData{}, now)
	assert.Contains(t, prompt, "boyfriend")
	assert.NotContains(t, prompt, "BACKGROUND")
	assert.NotContains(t, prompt, "years old")
}
