package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeStore struct {
	mu        sync.Mutex
	snapshots map[string]fakeSnapshot
	notFound  error
}

type fakeSnapshot struct {
	data      []byte
	expiresAt time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{snapshots: map[string]fakeSnapshot{}, notFound: context.Canceled}
}

func (s *fakeStore) GetSnapshot(_ context.Context, key string) ([]byte, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[key]
	if !ok {
		return nil, time.Time{}, s.notFound
	}
	return snap.data, snap.expiresAt, nil
}

func (s *fakeStore) PutSnapshot(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = fakeSnapshot{data: value, expiresAt: expiresAt}
	return nil
}

func (s *fakeStore) DeleteSnapshot(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
	return nil
}

type payload struct {
	Rate float64 `json:"rate"`
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("rates", map[string]float64{"lat": 39.7, "lon": -104.9})
	b := Key("rates", map[string]float64{"lat": 39.7, "lon": -104.9})
	if a != b {
		t.Errorf("same payload should produce same key: %s vs %s", a, b)
	}

	c := Key("rates", map[string]float64{"lat": 40.0, "lon": -104.9})
	if a == c {
		t.Error("different payloads should produce different keys")
	}
	if d := Key("production", map[string]float64{"lat": 39.7, "lon": -104.9}); d == a {
		t.Error("different namespaces should produce different keys")
	}
}

func TestMemoryTierRoundTrip(t *testing.T) {
	c := New(nil, nil, zerolog.Nop())
	ctx := context.Background()

	key := Key("test", "payload")
	if err := c.Set(ctx, key, TierShort, payload{Rate: 0.12}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got payload
	if !c.Get(ctx, key, TierShort, &got) {
		t.Fatal("expected memory hit")
	}
	if got.Rate != 0.12 {
		t.Errorf("expected 0.12, got %v", got.Rate)
	}
}

func TestMissOnUnknownKey(t *testing.T) {
	c := New(nil, nil, zerolog.Nop())
	var got payload
	if c.Get(context.Background(), Key("test", "nothing"), TierShort, &got) {
		t.Fatal("expected miss")
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := newMemoryTier()
	m.set("k", []byte(`{}`), -time.Second)
	if _, ok := m.get("k"); ok {
		t.Fatal("expired entry should not be returned")
	}
}

func TestLongTierFallbackAndRefill(t *testing.T) {
	store := newFakeStore()
	c := New(nil, store, zerolog.Nop())
	ctx := context.Background()

	key := Key("tariff", "loc")
	if err := c.Set(ctx, key, TierLong, payload{Rate: 0.14}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// wipe the memory tier to force the long-tier path
	c.memory = newMemoryTier()

	var got payload
	if !c.Get(ctx, key, TierLong, &got) {
		t.Fatal("expected snapshot hit")
	}
	if got.Rate != 0.14 {
		t.Errorf("expected 0.14, got %v", got.Rate)
	}

	// the hit must have refilled memory
	if _, ok := c.memory.get(key); !ok {
		t.Error("long-tier hit should refill the memory tier")
	}
}

func TestExpiredSnapshotEvicted(t *testing.T) {
	store := newFakeStore()
	c := New(nil, store, zerolog.Nop())
	ctx := context.Background()

	key := Key("tariff", "stale")
	store.snapshots[key] = fakeSnapshot{data: []byte(`{"rate":0.1}`), expiresAt: time.Now().Add(-time.Hour)}

	var got payload
	if c.Get(ctx, key, TierLong, &got) {
		t.Fatal("expired snapshot should miss")
	}
	if _, _, err := store.GetSnapshot(ctx, key); err == nil {
		t.Error("expired snapshot should have been deleted")
	}
}

func TestInvalidate(t *testing.T) {
	store := newFakeStore()
	c := New(nil, store, zerolog.Nop())
	ctx := context.Background()

	key := Key("tariff", "gone")
	if err := c.Set(ctx, key, TierLong, payload{Rate: 0.2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	c.Invalidate(ctx, key)

	var got payload
	if c.Get(ctx, key, TierLong, &got) {
		t.Fatal("invalidated key should miss")
	}
}

func TestTierTTLs(t *testing.T) {
	if TierShort.TTL() != time.Hour {
		t.Errorf("short TTL: %v", TierShort.TTL())
	}
	if TierMedium.TTL() != 24*time.Hour {
		t.Errorf("medium TTL: %v", TierMedium.TTL())
	}
	if TierLong.TTL() != 30*24*time.Hour {
		t.Errorf("long TTL: %v", TierLong.TTL())
	}
}
