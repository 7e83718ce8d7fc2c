package chatview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeEmptyHistory(t *testing.T) {
	buffer := []Message{{Role: RoleUser, Content: "hi", Timestamp: "2025-01-01T10:00:00Z"}}

	merged := Merge(nil, buffer)

	assert.Equal(t, buffer, merged)
}

func TestMergeFiltersConfirmedEntries(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "hi", Timestamp: "2025-01-01T10:00:00Z"},
		{Role: RoleAssistant, Content: "hello", Timestamp: "2025-01-01T10:00:01Z"},
	}
	buffer := []Message{{Role: RoleUser, Content: "hi", Timestamp: "2025-01-01T10:00:00Z"}}

	merged := Merge(history, buffer)

	assert.Equal(t, history, merged, "confirmed buffer entry must be filtered out")
}

func TestMergeKeepsUnconfirmedEntries(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "hi", Timestamp: "t1"},
		{Role: RoleAssistant, Content: "hello", Timestamp: "t2"},
	}
	buffer := []Message{
		{Role: RoleUser, Content: "hi", Timestamp: "t1"},
		{Role: RoleUser, Content: "how are you?", Timestamp: "t3"},
	}

	merged := Merge(history, buffer)

	assert.Len(t, merged, 3)
	assert.Equal(t, "how are you?", merged[2].Content)
}

func TestMergeIdempotent(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "a", Timestamp: "t1"},
		{Role: RoleAssistant, Content: "b", Timestamp: "t2"},
	}
	buffer := []Message{
		{Role: RoleUser, Content: "c", Timestamp: "t3"},
		{Role: RoleUser, Content: "d", Timestamp: "t4"},
	}

	once := Merge(history, buffer)
	twice := Merge(once, nil)

	assert.Equal(t, once, twice)
}

func TestMergeNoDuplicateIdentities(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "a", Timestamp: "t1"},
		{Role: RoleUser, Content: "a", Timestamp: "t2"},
	}
	buffer := []Message{
		{Role: RoleUser, Content: "a", Timestamp: "t1"},
		{Role: RoleUser, Content: "a", Timestamp: "t2"},
		{Role: RoleUser, Content: "a", Timestamp: "t3"},
	}

	merged := Merge(history, buffer)

	seen := make(map[Message]int)
	for _, m := range merged {
		seen[m]++
	}
	for m, n := range seen {
		assert.Equal(t, 1, n, "identity %v appeared %d times", m, n)
	}
	assert.Len(t, merged, 3)
}

func TestMergePreservesOrder(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "h1", Timestamp: "t1"},
		{Role: RoleAssistant, Content: "h2", Timestamp: "t2"},
		{Role: RoleUser, Content: "h3", Timestamp: "t3"},
	}
	buffer := []Message{
		{Role: RoleUser, Content: "b1", Timestamp: "t4"},
		{Role: RoleUser, Content: "h2", Timestamp: "t2"}, // confirmed, dropped
		{Role: RoleUser, Content: "b2", Timestamp: "t5"},
	}

	merged := Merge(history, buffer)

	assert.Equal(t, []string{"h1", "h2", "h3", "b1", "b2"}, contents(merged))
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	history := []Message{{Role: RoleUser, Content: "a", Timestamp: "t1"}}
	buffer := []Message{{Role: RoleUser, Content: "b", Timestamp: "t2"}}

	Merge(history, buffer)

	assert.Equal(t, "a", history[0].Content)
	assert.Equal(t, "b", buffer[0].Content)
	assert.Len(t, history, 1)
	assert.Len(t, buffer, 1)
}

func contents(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}
