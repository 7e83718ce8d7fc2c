package relationship

import (
	"context"
	"sync"
	"time"

	"astro-soulmate/backend/pkg/logger"
)

// Defaults for a character with no stored record.
const (
	DefaultScore  = 50
	DefaultStatus = "Neutral"

	// DefaultTransientWindow is how long a score change stays visible
	// before the indicator clears itself.
	DefaultTransientWindow = 3 * time.Second
)

// Record is the relationship state for one character as seen by the view.
type Record struct {
	CharacterID    string `json:"character_id"`
	Score          int    `json:"score"`
	StatusLabel    string `json:"status_label"`
	TransientDelta int    `json:"transient_delta"`
}

// entry is the cache's internal state per character. expiry is the single
// live clear task for the key; generation guards a superseded task that
// fires after its Stop raced the firing goroutine.
type entry struct {
	score      int
	status     string
	delta      int
	expiry     *time.Timer
	generation uint64
	// updated marks that an authoritative exchange touched this entry.
	// Profile-load seeding must not clobber it with stale initial data.
	updated bool
}

// Cache holds per-character relationship records with a cancellable expiry
// task per key. Score and status label are write-through persisted via the
// snapshot store; the transient delta lives only in memory. All operations
// are total: a missing record reads as the neutral default.
type Cache struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*entry
	store   SnapshotStore
	log     *logger.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTransientWindow overrides the transient display window.
func WithTransientWindow(d time.Duration) Option {
	return func(c *Cache) { c.window = d }
}

// NewCache creates a relationship cache backed by the given snapshot store.
// A nil log falls back to the global logger.
func NewCache(store SnapshotStore, log *logger.Logger, opts ...Option) *Cache {
	if log == nil {
		log = logger.GetGlobal()
	}
	c := &Cache{
		window:  DefaultTransientWindow,
		entries: make(map[string]*entry),
		store:   store,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns the record for the character, or the neutral default if none
// exists. It never fails.
func (c *Cache) Read(characterID string) Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(characterID)
	return Record{
		CharacterID:    characterID,
		Score:          e.score,
		StatusLabel:    e.status,
		TransientDelta: e.delta,
	}
}

// InitFromCharacter seeds the record when a character profile is first
// loaded. The write is conditional: an entry that already saw an
// authoritative update this session is left alone, so a slow profile load
// never clobbers a just-applied exchange result. The transient delta is
// left untouched.
func (c *Cache) InitFromCharacter(characterID string, score int, statusLabel string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(characterID)
	if e.updated {
		return
	}
	if e.score == score && e.status == statusLabel {
		return
	}
	e.score = score
	e.status = statusLabel
	c.persist(characterID, e)
}

// ApplyUpdate records the authoritative result of a chat exchange. Ordering
// matters: the previous expiry task is cancelled before the values are
// overwritten and a fresh task is scheduled, so a rapid pair of updates for
// the same character never lets the first update's timer zero out the
// second's delta.
func (c *Cache) ApplyUpdate(characterID string, score int, statusLabel string, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.lookup(characterID)
	c.cancelExpiry(e)

	e.score = score
	e.status = statusLabel
	e.delta = delta
	e.updated = true
	c.persist(characterID, e)

	gen := e.generation
	e.expiry = time.AfterFunc(c.window, func() {
		c.expire(characterID, gen)
	})
}

// ClearTransient cancels any pending expiry task and zeroes the transient
// delta, leaving score and status untouched. Idempotent.
func (c *Cache) ClearTransient(characterID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[characterID]
	if !ok {
		return
	}
	c.cancelExpiry(e)
	e.delta = 0
}

// Reset cancels any pending expiry task and removes the record entirely,
// including its durable snapshot. Used when a character is deleted.
func (c *Cache) Reset(characterID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[characterID]
	if ok {
		c.cancelExpiry(e)
		delete(c.entries, characterID)
	}
	if c.store != nil {
		if err := c.store.Delete(context.Background(), characterID); err != nil {
			c.log.Warn("failed to delete relationship snapshot", "character_id", characterID, "error", err.Error())
		}
	}
}

// Close cancels every pending expiry task. The cache is unusable afterwards
// only in the sense that scheduled clears are gone; reads still work.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		c.cancelExpiry(e)
	}
}

// lookup returns the entry for the character, creating it from the durable
// snapshot or the neutral default. Caller holds the lock.
func (c *Cache) lookup(characterID string) *entry {
	if e, ok := c.entries[characterID]; ok {
		return e
	}
	e := &entry{score: DefaultScore, status: DefaultStatus}
	if c.store != nil {
		snap, ok, err := c.store.Load(context.Background(), characterID)
		if err != nil {
			c.log.Warn("failed to load relationship snapshot", "character_id", characterID, "error", err.Error())
		} else if ok {
			e.score = snap.Score
			e.status = snap.StatusLabel
		}
	}
	c.entries[characterID] = e
	return e
}

// cancelExpiry supersedes the live expiry task for the entry. Bumping the
// generation makes a task that already slipped past Stop a no-op. Caller
// holds the lock.
func (c *Cache) cancelExpiry(e *entry) {
	e.generation++
	if e.expiry != nil {
		e.expiry.Stop()
		e.expiry = nil
	}
}

// expire is the timer callback. It clears the delta only if its generation
// is still current, i.e. no later update or explicit clear superseded it.
func (c *Cache) expire(characterID string, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[characterID]
	if !ok || e.generation != generation {
		return
	}
	e.delta = 0
	e.expiry = nil
}

// persist writes the durable slice of the entry through to the store.
// Caller holds the lock.
func (c *Cache) persist(characterID string, e *entry) {
	if c.store == nil {
		return
	}
	snap := Snapshot{Score: e.score, StatusLabel: e.status}
	if err := c.store.Save(context.Background(), characterID, snap); err != nil {
		c.log.Warn("failed to save relationship snapshot", "character_id", characterID, "error", err.Error())
	}
}
