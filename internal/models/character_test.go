package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBirthDataAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	age, ok := BirthData{Year: 2000, Month: 1, Day: 15}.Age(now)
	assert.True(t, ok)
	assert.Equal(t, 25, age)

	// Birthday later this year has not happened yet
	age, ok = BirthData{Year: 2000, Month: 12, Day: 31}.Age(now)
	assert.True(t, ok)
	assert.Equal(t, 24, age)

	// Birthday today counts
	age, ok = BirthData{Year: 2000, Month: 6, Day: 1}.Age(now)
	assert.True(t, ok)
	assert.Equal(t, 25, age)

	_, ok = BirthData{}.Age(now)
	assert.False(t, ok)

	_, ok = BirthData{Year: 2030, Month: 1, Day: 1}.Age(now)
	assert.False(t, ok)

	_, ok = BirthData{Year: 2000, Month: 13, Day: 5}.Age(now)
	assert.False(t, ok)
}

func TestHistoryScanRoundTrip(t *testing.T) {
	original := History{
		{Role: RoleUser, Content: "hi", Timestamp: "2025-06-01T10:00:00Z"},
		{Role: RoleAssistant, Content: "hey you", Timestamp: "2025-06-01T10:00:00Z"},
	}

	value, err := original.Value()
	assert.NoError(t, err)

	var decoded History
	assert.NoError(t, decoded.Scan(value))
	assert.Equal(t, original, decoded)

	// Postgres drivers sometimes hand back jsonb as string
	var fromString History
	assert.NoError(t, fromString.Scan(string(value.([]byte))))
	assert.Equal(t, original, fromString)

	var fromNil History
	assert.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)
}
