package indicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketMovers/internal/model"
)

// Key identifies one cached indicator computation.
type Key struct {
	ProductID string
	Frequency model.Frequency
	Period    int
}

func (k Key) String() string {
	return fmt.Sprintf("rsi:%s:%s:%d", k.ProductID, k.Frequency, k.Period)
}

// Entry is a cached payload and the time it was computed.
type Entry struct {
	ComputedAt time.Time       `json:"computed_at"`
	Payload    model.RSIResult `json:"payload"`
}

// Store holds cache entries. Implementations must be safe for concurrent use.
// Freshness is decided by the caller; a Store only keeps what it is given.
type Store interface {
	Load(ctx context.Context, key Key) (Entry, bool)
	Save(ctx context.Context, key Key, e Entry)
	Delete(ctx context.Context, key Key)
}

// MemoryStore is a mutex-guarded in-process Store. Stale entries are removed
// by the reader; there is no background sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[Key]Entry)}
}

func (m *MemoryStore) Load(_ context.Context, key Key) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

func (m *MemoryStore) Save(_ context.Context, key Key, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = e
}

func (m *MemoryStore) Delete(_ context.Context, key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Len reports the number of entries currently held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
