package chatview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferAppendAssignsUniqueIDs(t *testing.T) {
	b := NewBuffer()

	// Two sends with identical content must remain individually addressable.
	msg := Message{Role: RoleUser, Content: "hi", Timestamp: "t1"}
	id1 := b.Append(msg)
	id2 := b.Append(msg)

	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, b.Len())
}

func TestBufferRollbackByID(t *testing.T) {
	b := NewBuffer()
	msg := Message{Role: RoleUser, Content: "hi", Timestamp: "t1"}
	id1 := b.Append(msg)
	b.Append(msg)

	assert.True(t, b.Rollback(id1))
	assert.Equal(t, 1, b.Len(), "only the rolled-back entry is removed")

	assert.False(t, b.Rollback(id1), "rollback of an unknown id is a no-op")
	assert.Equal(t, 1, b.Len())
}

func TestBufferPrune(t *testing.T) {
	b := NewBuffer()
	b.Append(Message{Role: RoleUser, Content: "hi", Timestamp: "t1"})
	b.Append(Message{Role: RoleUser, Content: "still there?", Timestamp: "t3"})

	history := []Message{
		{Role: RoleUser, Content: "hi", Timestamp: "t1"},
		{Role: RoleAssistant, Content: "hello", Timestamp: "t2"},
	}
	b.Prune(history)

	msgs := b.Messages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, "still there?", msgs[0].Content)
}

func TestBufferPruneDropsConfirmedEntries(t *testing.T) {
	b := NewBuffer()
	id := b.Append(Message{Role: RoleUser, Content: "hi", Timestamp: "t1"})
	b.Append(Message{Role: RoleUser, Content: "still there?", Timestamp: "t3"})

	assert.True(t, b.MarkConfirmed(id))
	assert.False(t, b.MarkConfirmed("nope"), "unknown id is a no-op")
	assert.Equal(t, 2, b.Len(), "confirmation alone does not remove the entry")

	// The stored copy carries a server timestamp, so no identity matches.
	history := []Message{
		{Role: RoleUser, Content: "hi", Timestamp: "t1-server"},
		{Role: RoleAssistant, Content: "hello", Timestamp: "t2-server"},
	}
	b.Prune(history)

	msgs := b.Messages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, "still there?", msgs[0].Content)
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer()
	b.Append(Message{Role: RoleUser, Content: "hi", Timestamp: "t1"})

	b.Clear()

	assert.Zero(t, b.Len())
	assert.Empty(t, b.Messages())
}

func TestBufferMessagesOrder(t *testing.T) {
	b := NewBuffer()
	b.Append(Message{Role: RoleUser, Content: "first", Timestamp: "t1"})
	b.Append(Message{Role: RoleUser, Content: "second", Timestamp: "t2"})
	b.Append(Message{Role: RoleUser, Content: "third", Timestamp: "t3"})

	assert.Equal(t, []string{"first", "second", "third"}, contents(b.Messages()))
}
