package chatview

import "github.com/google/uuid"

// Entry is a locally authored message awaiting server confirmation. The
// correlation ID identifies the entry for rollback and confirmation; message
// identity cannot serve here because duplicate sends may carry identical
// content, and the server stamps the stored copy with its own clock.
type Entry struct {
	ID        string
	Message   Message
	confirmed bool
}

// Buffer holds the optimistic messages for one active chat view, oldest
// first. It is owned by exactly one view and is not safe for concurrent use.
type Buffer struct {
	entries []Entry
}

// NewBuffer returns an empty optimistic buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a message to the end of the buffer and returns the correlation
// ID assigned to it.
func (b *Buffer) Append(msg Message) string {
	id := uuid.NewString()
	b.entries = append(b.entries, Entry{ID: id, Message: msg})
	return id
}

// Rollback removes the entry with the given correlation ID, restoring the
// view to its pre-send state. It reports whether an entry was removed.
func (b *Buffer) Rollback(id string) bool {
	for i, e := range b.entries {
		if e.ID == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return true
		}
	}
	return false
}

// MarkConfirmed records that the server acknowledged the exchange carrying
// this entry. The stored copy carries the server's timestamp, so identity
// matching against history cannot supersede the entry; the next successful
// Prune drops it outright. It reports whether the entry was found.
func (b *Buffer) MarkConfirmed(id string) bool {
	for i := range b.entries {
		if b.entries[i].ID == id {
			b.entries[i].confirmed = true
			return true
		}
	}
	return false
}

// Prune drops every confirmed entry plus every entry whose identity tuple
// appears in the fetched server history. Entries the server has not
// acknowledged yet stay put.
func (b *Buffer) Prune(serverHistory []Message) {
	if len(b.entries) == 0 {
		return
	}
	inHistory := make(map[identity]struct{}, len(serverHistory))
	for _, m := range serverHistory {
		inHistory[m.identity()] = struct{}{}
	}
	kept := b.entries[:0]
	for _, e := range b.entries {
		if e.confirmed {
			continue
		}
		if _, ok := inHistory[e.Message.identity()]; ok {
			continue
		}
		kept = append(kept, e)
	}
	b.entries = kept
}

// Messages returns the buffered messages in order.
func (b *Buffer) Messages() []Message {
	msgs := make([]Message, len(b.entries))
	for i, e := range b.entries {
		msgs[i] = e.Message
	}
	return msgs
}

// Clear empties the buffer. Used when the view switches sessions or starts a
// new chat.
func (b *Buffer) Clear() {
	b.entries = nil
}

// Len returns the number of unconfirmed entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}
