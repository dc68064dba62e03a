package persist

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/tricycle-learn/tricycle"
)

// MemoryStore is the fast local tier: a synchronous, same-process key-value
// cache. It is a UI-consistency cache, not a source of truth; contents are
// lost with the process.
type MemoryStore struct {
	userID string

	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryStore creates an empty in-process store keyed for the user.
func NewMemoryStore(userID string) *MemoryStore {
	return &MemoryStore{
		userID: userID,
		data:   map[string][]byte{},
	}
}

// Name implements Store.
func (m *MemoryStore) Name() string { return "memory" }

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, snap tricycle.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.data[snapshotKeys(m.userID)[0]] = payload
	return nil
}

// Load implements Store. Keys are probed in priority order; the first
// non-empty one wins.
func (m *MemoryStore) Load(_ context.Context) (*tricycle.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	for _, key := range snapshotKeys(m.userID) {
		payload, ok := m.data[key]
		if !ok || len(payload) == 0 {
			continue
		}
		var snap tricycle.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, err
		}
		return &snap, nil
	}
	return nil, ErrNoSnapshot
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
