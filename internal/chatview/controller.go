package chatview

import (
	"context"
	"time"

	"astro-soulmate/backend/internal/relationship"
	"astro-soulmate/backend/pkg/metrics"
)

// ExchangeResult is what the transport returns for a completed send-message
// exchange. Score, StatusLabel and ScoreChange are opaque server values; the
// view never re-derives them.
type ExchangeResult struct {
	SessionID   string
	ReplyText   string
	Score       int
	StatusLabel string
	ScoreChange int
}

// SendFunc performs the send-message exchange against the server.
type SendFunc func(ctx context.Context, characterID, sessionID, text string) (*ExchangeResult, error)

// FetchFunc returns the authoritative history for a session, oldest first.
type FetchFunc func(ctx context.Context, sessionID string) ([]Message, error)

// Controller owns the view state for one chat with one character: the last
// fetched server history, the optimistic buffer, and the session identity.
// A send appends to the buffer before the server replies; the reply feeds
// the relationship cache and triggers a refetch that supersedes the buffered
// entry. Not safe for concurrent use; a view drives it from a single
// goroutine.
type Controller struct {
	characterID string
	sessionID   string
	history     []Message
	buffer      *Buffer
	rel         *relationship.Cache
	send        SendFunc
	fetch       FetchFunc
	now         func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithSessionID resumes an existing session instead of starting a new one.
func WithSessionID(sessionID string) ControllerOption {
	return func(c *Controller) { c.sessionID = sessionID }
}

// WithClock overrides the timestamp source. Used in tests.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController creates a view controller for the given character.
func NewController(characterID string, rel *relationship.Cache, send SendFunc, fetch FetchFunc, opts ...ControllerOption) *Controller {
	c := &Controller{
		characterID: characterID,
		buffer:      NewBuffer(),
		rel:         rel,
		send:        send,
		fetch:       fetch,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send appends the text optimistically, performs the exchange, and on success
// applies the returned relationship values and refetches the session. On
// transport failure the optimistic entry is rolled back and the error is
// returned; the transcript reverts to exactly its pre-send state.
func (c *Controller) Send(ctx context.Context, text string) (*ExchangeResult, error) {
	msg := Message{
		Role:      RoleUser,
		Content:   text,
		Timestamp: c.now().UTC().Format(time.RFC3339),
	}
	correlationID := c.buffer.Append(msg)

	res, err := c.send(ctx, c.characterID, c.sessionID, text)
	if err != nil {
		c.buffer.Rollback(correlationID)
		metrics.OptimisticRollbacks.Inc()
		return nil, err
	}

	c.sessionID = res.SessionID
	c.rel.ApplyUpdate(c.characterID, res.Score, res.StatusLabel, res.ScoreChange)

	// The server stored the pair under its own timestamp, which the
	// optimistic stamp will not match. The acknowledged exchange proves
	// delivery, so the entry is superseded by correlation id on the next
	// successful fetch rather than by identity.
	c.buffer.MarkConfirmed(correlationID)

	// Refetch the authoritative transcript. If the fetch fails the buffered
	// entry simply stays until the next successful refresh; the merge keeps
	// the view consistent either way.
	if history, err := c.fetch(ctx, res.SessionID); err == nil {
		c.history = history
		c.buffer.Prune(history)
	}

	return res, nil
}

// Refresh refetches the session history and prunes confirmed entries.
func (c *Controller) Refresh(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	history, err := c.fetch(ctx, c.sessionID)
	if err != nil {
		return err
	}
	c.history = history
	c.buffer.Prune(history)
	return nil
}

// Transcript returns the reconciled display transcript: server truth first,
// unconfirmed local entries appended.
func (c *Controller) Transcript() []Message {
	return Merge(c.history, c.buffer.Messages())
}

// Relationship returns the cached relationship record for this character.
func (c *Controller) Relationship() relationship.Record {
	return c.rel.Read(c.characterID)
}

// SessionID returns the current session id, empty before the first exchange.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// NewChat discards the session binding, history and buffer so the next send
// starts a fresh session.
func (c *Controller) NewChat() {
	c.sessionID = ""
	c.history = nil
	c.buffer.Clear()
}

// SwitchSession rebinds the view to another session, discarding the buffer
// and the stale history. The caller refreshes afterwards.
func (c *Controller) SwitchSession(sessionID string) {
	c.sessionID = sessionID
	c.history = nil
	c.buffer.Clear()
}
