package relationship

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, window time.Duration) (*Cache, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	c := NewCache(store, nil, WithTransientWindow(window))
	t.Cleanup(c.Close)
	return c, store
}

func TestReadUnknownReturnsDefault(t *testing.T) {
	c, _ := newCache(t, time.Hour)

	rec := c.Read("unknown")

	assert.Equal(t, DefaultScore, rec.Score)
	assert.Equal(t, DefaultStatus, rec.StatusLabel)
	assert.Zero(t, rec.TransientDelta)
}

func TestApplyUpdateThenExpiry(t *testing.T) {
	c, _ := newCache(t, 50*time.Millisecond)

	c.ApplyUpdate("c1", 55, "Interested", 5)

	rec := c.Read("c1")
	assert.Equal(t, 55, rec.Score)
	assert.Equal(t, "Interested", rec.StatusLabel)
	assert.Equal(t, 5, rec.TransientDelta)

	time.Sleep(120 * time.Millisecond)

	rec = c.Read("c1")
	assert.Zero(t, rec.TransientDelta, "indicator clears after the window")
	assert.Equal(t, 55, rec.Score, "score persists past the window")
	assert.Equal(t, "Interested", rec.StatusLabel)
}

func TestRapidUpdatesLastOneWins(t *testing.T) {
	c, _ := newCache(t, 300*time.Millisecond)

	c.ApplyUpdate("c1", 55, "Interested", 5)
	time.Sleep(100 * time.Millisecond)
	c.ApplyUpdate("c1", 62, "Curious", 7)

	// Past the first update's window: its superseded timer must not have
	// zeroed the second update's delta.
	time.Sleep(250 * time.Millisecond)
	rec := c.Read("c1")
	assert.Equal(t, 7, rec.TransientDelta)
	assert.Equal(t, 62, rec.Score)

	// Past the second window: exactly one clear happened.
	time.Sleep(150 * time.Millisecond)
	rec = c.Read("c1")
	assert.Zero(t, rec.TransientDelta)
	assert.Equal(t, 62, rec.Score)
	assert.Equal(t, "Curious", rec.StatusLabel)
}

func TestClearTransientIdempotent(t *testing.T) {
	c, _ := newCache(t, 50*time.Millisecond)

	c.ApplyUpdate("c1", 60, "Warm", 4)
	c.ClearTransient("c1")
	c.ClearTransient("c1")
	c.ClearTransient("never-seen")

	rec := c.Read("c1")
	assert.Zero(t, rec.TransientDelta)
	assert.Equal(t, 60, rec.Score)

	// The cancelled timer must stay a no-op after its window elapses.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, 60, c.Read("c1").Score)
	assert.Zero(t, c.Read("c1").TransientDelta)
}

func TestInitFromCharacterSeedsNewRecord(t *testing.T) {
	c, store := newCache(t, time.Hour)

	c.InitFromCharacter("c1", 70, "Curious")

	rec := c.Read("c1")
	assert.Equal(t, 70, rec.Score)
	assert.Equal(t, "Curious", rec.StatusLabel)
	assert.Zero(t, rec.TransientDelta)

	snap, ok, err := store.Load(context.Background(), "c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Snapshot{Score: 70, StatusLabel: "Curious"}, snap)
}

func TestInitFromCharacterDoesNotClobberUpdate(t *testing.T) {
	c, _ := newCache(t, time.Hour)

	c.ApplyUpdate("c1", 80, "Smitten", 5)
	c.InitFromCharacter("c1", 70, "Curious")

	rec := c.Read("c1")
	assert.Equal(t, 80, rec.Score)
	assert.Equal(t, "Smitten", rec.StatusLabel)
	assert.Equal(t, 5, rec.TransientDelta, "init never touches the transient delta")
}

func TestReset(t *testing.T) {
	c, store := newCache(t, 50*time.Millisecond)

	c.ApplyUpdate("c1", 80, "Smitten", 5)
	c.Reset("c1")

	rec := c.Read("c1")
	assert.Equal(t, DefaultScore, rec.Score)
	assert.Equal(t, DefaultStatus, rec.StatusLabel)
	assert.Zero(t, rec.TransientDelta)

	_, ok, err := store.Load(context.Background(), "c1")
	require.NoError(t, err)
	assert.False(t, ok, "durable snapshot removed")

	// The pending expiry was cancelled; the default record must survive it.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, DefaultScore, c.Read("c1").Score)
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	store := NewMemoryStore()

	first := NewCache(store, nil, WithTransientWindow(time.Hour))
	first.ApplyUpdate("c1", 66, "Warm", 4)
	first.Close()

	second := NewCache(store, nil, WithTransientWindow(time.Hour))
	t.Cleanup(second.Close)

	rec := second.Read("c1")
	assert.Equal(t, 66, rec.Score)
	assert.Equal(t, "Warm", rec.StatusLabel)
	assert.Zero(t, rec.TransientDelta, "transient delta is never persisted")
}

func TestNilStoreIsAllowed(t *testing.T) {
	c := NewCache(nil, nil, WithTransientWindow(time.Hour))
	t.Cleanup(c.Close)

	c.ApplyUpdate("c1", 55, "Interested", 5)
	c.Reset("c1")

	assert.Equal(t, DefaultScore, c.Read("c1").Score)
}
