package cache

import (
	"context"
	"testing"
	"time"
)

// memoryKV is an in-memory backend for tests. It records the last
// eviction deadline handed to the backend.
type memoryKV struct {
	items   map[string][]byte
	lastTTL time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{items: make(map[string][]byte)}
}

func (m *memoryKV) GetBytes(_ context.Context, key string) ([]byte, error) {
	return m.items[key], nil
}

func (m *memoryKV) SetWithExpiration(_ context.Context, key string, value []byte, expiration time.Duration) error {
	m.items[key] = value
	m.lastTTL = expiration
	return nil
}

type payload struct {
	Name string `json:"name"`
}

func TestStoreRoundTrip(t *testing.T) {
	kv := newMemoryKV()
	store := NewStore[payload](kv, "tracks", 2, Expiration{Duration: 2, Unit: Weeks})

	ctx := context.Background()
	if _, err := store.SetItem(ctx, "abc", payload{Name: "Song"}); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	got, err := store.GetItem(ctx, "abc")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil || got.Name != "Song" {
		t.Errorf("expected stored payload, got %+v", got)
	}
}

func TestStoreMissOnAbsent(t *testing.T) {
	store := NewStore[payload](newMemoryKV(), "tracks", 2, Expiration{Duration: 2, Unit: Weeks})

	got, err := store.GetItem(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss for absent key, got %+v", got)
	}
}

func TestStoreBackendEvictionDeadline(t *testing.T) {
	kv := newMemoryKV()
	store := NewStore[payload](kv, "tracks", 2, Expiration{Duration: 2, Unit: Weeks})
	now := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if _, err := store.SetItem(context.Background(), "abc", payload{Name: "Song"}); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	// Midnight-aligned: two weeks from May 1 expires May 15 00:00.
	want := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC).Sub(now)
	if kv.lastTTL != want {
		t.Errorf("expected backend TTL %v, got %v", want, kv.lastTTL)
	}
}

func TestStoreMissOnVersionMismatch(t *testing.T) {
	kv := newMemoryKV()
	ctx := context.Background()

	old := NewStore[payload](kv, "tracks", 1, Expiration{Duration: 2, Unit: Weeks})
	if _, err := old.SetItem(ctx, "abc", payload{Name: "Song"}); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	current := NewStore[payload](kv, "tracks", 2, Expiration{Duration: 2, Unit: Weeks})
	got, err := current.GetItem(ctx, "abc")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected version mismatch to read as a miss, got %+v", got)
	}
}

func TestStoreMissOnExpiry(t *testing.T) {
	kv := newMemoryKV()
	ctx := context.Background()

	store := NewStore[payload](kv, "lyrics", 2, Expiration{Duration: 1, Unit: Months})
	if _, err := store.SetItem(ctx, "abc", payload{Name: "Song"}); err != nil {
		t.Fatalf("SetItem: %v", err)
	}

	// Same store read far in the future.
	store.now = func() time.Time { return time.Now().AddDate(0, 3, 0) }
	got, err := store.GetItem(ctx, "abc")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected expired item to read as a miss, got %+v", got)
	}
}

func TestStoreMissOnGarbage(t *testing.T) {
	kv := newMemoryKV()
	kv.items["tracks:abc"] = []byte("not json")

	store := NewStore[payload](kv, "tracks", 2, Expiration{Duration: 2, Unit: Weeks})
	got, err := store.GetItem(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected malformed data to read as a miss, got %+v", got)
	}
}
