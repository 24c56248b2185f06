package cache

import (
	"sync"
	"time"

	"github.com/mfreitag/solarledger/internal/metrics"
)

// memoryTier is the in-process short tier. Expired entries are dropped
// lazily on read and swept whenever the map grows past the sweep
// threshold.
type memoryTier struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

const sweepThreshold = 4096

func newMemoryTier() *memoryTier {
	return &memoryTier{entries: make(map[string]memoryEntry)}
}

func (m *memoryTier) get(key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		m.delete(key)
		metrics.CacheEvictionsTotal.WithLabelValues(string(TierShort)).Inc()
		return nil, false
	}
	return entry.data, true
}

func (m *memoryTier) set(key string, data []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= sweepThreshold {
		m.sweepLocked()
	}
	m.entries[key] = memoryEntry{data: data, expiresAt: time.Now().Add(ttl)}
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *memoryTier) sweepLocked() {
	now := time.Now()
	for key, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, key)
			metrics.CacheEvictionsTotal.WithLabelValues(string(TierShort)).Inc()
		}
	}
}
