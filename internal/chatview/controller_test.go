package chatview

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astro-soulmate/backend/internal/relationship"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestCache(t *testing.T) *relationship.Cache {
	t.Helper()
	c := relationship.NewCache(relationship.NewMemoryStore(), nil,
		relationship.WithTransientWindow(time.Hour))
	t.Cleanup(c.Close)
	return c
}

func TestControllerSendSuccess(t *testing.T) {
	rel := newTestCache(t)

	var server []Message
	send := func(ctx context.Context, characterID, sessionID, text string) (*ExchangeResult, error) {
		// The server stamps the pair with its own clock after the model
		// call, so the stored timestamps trail the optimistic one.
		server = append(server,
			Message{Role: RoleUser, Content: text, Timestamp: "2025-01-01T10:00:02Z"},
			Message{Role: RoleAssistant, Content: "hello!", Timestamp: "2025-01-01T10:00:02Z"},
		)
		return &ExchangeResult{
			SessionID:   "s1",
			ReplyText:   "hello!",
			Score:       55,
			StatusLabel: "Interested",
			ScoreChange: 5,
		}, nil
	}
	fetch := func(ctx context.Context, sessionID string) ([]Message, error) {
		return append([]Message(nil), server...), nil
	}

	ctrl := NewController("c1", rel, send, fetch, WithClock(fixedClock()))

	res, err := ctrl.Send(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "s1", ctrl.SessionID())
	assert.Equal(t, "hello!", res.ReplyText)

	// The optimistic entry was superseded by the refetched history even
	// though its timestamp never appears there.
	transcript := ctrl.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "hi", transcript[0].Content)
	assert.Equal(t, "hello!", transcript[1].Content)
	assert.Equal(t, "2025-01-01T10:00:02Z", transcript[0].Timestamp,
		"the server-stamped copy wins over the optimistic one")

	rec := ctrl.Relationship()
	assert.Equal(t, 55, rec.Score)
	assert.Equal(t, "Interested", rec.StatusLabel)
	assert.Equal(t, 5, rec.TransientDelta)
}

func TestControllerSendFailureRollsBack(t *testing.T) {
	rel := newTestCache(t)
	send := func(ctx context.Context, characterID, sessionID, text string) (*ExchangeResult, error) {
		return nil, errors.New("connection refused")
	}
	fetch := func(ctx context.Context, sessionID string) ([]Message, error) {
		t.Fatal("fetch must not run after a failed send")
		return nil, nil
	}

	ctrl := NewController("c1", rel, send, fetch, WithClock(fixedClock()))

	_, err := ctrl.Send(context.Background(), "hi")
	require.Error(t, err)

	assert.Empty(t, ctrl.Transcript(), "failed send must disappear from the transcript")
	assert.Empty(t, ctrl.SessionID())

	rec := ctrl.Relationship()
	assert.Equal(t, relationship.DefaultScore, rec.Score)
	assert.Zero(t, rec.TransientDelta, "no indicator before ApplyUpdate is invoked")
}

func TestControllerFetchFailureKeepsOptimisticEntry(t *testing.T) {
	rel := newTestCache(t)
	send := func(ctx context.Context, characterID, sessionID, text string) (*ExchangeResult, error) {
		return &ExchangeResult{SessionID: "s1", ReplyText: "ok", Score: 52, StatusLabel: "Neutral", ScoreChange: 2}, nil
	}
	fetch := func(ctx context.Context, sessionID string) ([]Message, error) {
		return nil, errors.New("timeout")
	}

	ctrl := NewController("c1", rel, send, fetch, WithClock(fixedClock()))

	_, err := ctrl.Send(context.Background(), "hi")
	require.NoError(t, err)

	transcript := ctrl.Transcript()
	require.Len(t, transcript, 1, "optimistic entry stays visible until a refetch confirms it")
	assert.Equal(t, "hi", transcript[0].Content)
	assert.Equal(t, 52, ctrl.Relationship().Score)
}

func TestControllerRefreshPrunesBuffer(t *testing.T) {
	rel := newTestCache(t)
	// Server stamps diverge from the optimistic one; the entry is dropped on
	// refresh because the exchange acknowledged it, not by identity match.
	history := []Message{
		{Role: RoleUser, Content: "hi", Timestamp: "2025-01-01T10:00:03Z"},
		{Role: RoleAssistant, Content: "hello", Timestamp: "2025-01-01T10:00:04Z"},
	}
	send := func(ctx context.Context, characterID, sessionID, text string) (*ExchangeResult, error) {
		return &ExchangeResult{SessionID: "s1", ReplyText: "hello", Score: 51, StatusLabel: "Neutral", ScoreChange: 1}, nil
	}
	failedOnce := false
	fetch := func(ctx context.Context, sessionID string) ([]Message, error) {
		if !failedOnce {
			failedOnce = true
			return nil, errors.New("timeout")
		}
		return history, nil
	}

	ctrl := NewController("c1", rel, send, fetch, WithClock(fixedClock()))
	_, err := ctrl.Send(context.Background(), "hi")
	require.NoError(t, err)
	require.Len(t, ctrl.Transcript(), 1)

	require.NoError(t, ctrl.Refresh(context.Background()))

	assert.Equal(t, history, ctrl.Transcript())
}

func TestControllerSwitchSessionClearsBuffer(t *testing.T) {
	rel := newTestCache(t)
	send := func(ctx context.Context, characterID, sessionID, text string) (*ExchangeResult, error) {
		return &ExchangeResult{SessionID: "s1", Score: 51, StatusLabel: "Neutral", ScoreChange: 1}, nil
	}
	fetch := func(ctx context.Context, sessionID string) ([]Message, error) {
		return nil, errors.New("timeout")
	}

	ctrl := NewController("c1", rel, send, fetch, WithClock(fixedClock()))
	_, err := ctrl.Send(context.Background(), "hi")
	require.NoError(t, err)
	require.NotEmpty(t, ctrl.Transcript())

	ctrl.SwitchSession("s2")

	assert.Equal(t, "s2", ctrl.SessionID())
	assert.Empty(t, ctrl.Transcript())

	ctrl.NewChat()
	assert.Empty(t, ctrl.SessionID())
}
