package relationship

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

// StoreKey names the durable record all snapshot stores write under.
const StoreKey = "relationship:v1"

// Snapshot is the durable slice of a relationship record. The transient
// delta and expiry handles are never persisted; a reloaded process starts
// with no pending indicator.
type Snapshot struct {
	Score       int    `json:"score"`
	StatusLabel string `json:"status"`
}

// SnapshotStore persists {score, statusLabel} per character id across
// process restarts.
type SnapshotStore interface {
	Load(ctx context.Context, characterID string) (Snapshot, bool, error)
	Save(ctx context.Context, characterID string, snap Snapshot) error
	Delete(ctx context.Context, characterID string) error
}

// RedisStore keeps snapshots in a single Redis hash keyed by character id.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed snapshot store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, characterID string) (Snapshot, bool, error) {
	raw, err := s.client.HGet(ctx, StoreKey, characterID).Result()
	if err == redis.Nil {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("corrupt relationship snapshot for %s: %w", characterID, err)
	}
	return snap, true, nil
}

func (s *RedisStore) Save(ctx context.Context, characterID string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, StoreKey, characterID, raw).Err()
}

func (s *RedisStore) Delete(ctx context.Context, characterID string) error {
	return s.client.HDel(ctx, StoreKey, characterID).Err()
}

// MemoryStore is an in-process snapshot store for tests and for callers that
// opt out of persistence.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

func (s *MemoryStore) Load(_ context.Context, characterID string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[characterID]
	return snap, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, characterID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[characterID] = snap
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, characterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, characterID)
	return nil
}

// FileStore persists snapshots as a JSON file, the durable-storage facility
// of a local client process. The whole mapping is rewritten on each save;
// snapshot volume is one small record per character.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a file-backed snapshot store at path, creating parent
// directories as needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load(_ context.Context, characterID string) (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return Snapshot{}, false, err
	}
	snap, ok := all[characterID]
	return snap, ok, nil
}

func (s *FileStore) Save(_ context.Context, characterID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return err
	}
	all[characterID] = snap
	return s.writeAll(all)
}

func (s *FileStore) Delete(_ context.Context, characterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, err := s.readAll()
	if err != nil {
		return err
	}
	delete(all, characterID)
	return s.writeAll(all)
}

func (s *FileStore) readAll() (map[string]Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]Snapshot), nil
	}
	if err != nil {
		return nil, err
	}
	all := make(map[string]Snapshot)
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("corrupt snapshot file %s: %w", s.path, err)
	}
	return all, nil
}

func (s *FileStore) writeAll(all map[string]Snapshot) error {
	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
