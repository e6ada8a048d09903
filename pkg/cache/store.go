package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// KV is the backend the stores persist through. GetBytes returns
// (nil, nil) for an absent key.
type KV interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetWithExpiration(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

// ExpirationUnit selects how Expiration.Duration is counted.
type ExpirationUnit string

const (
	Weeks  ExpirationUnit = "Weeks"
	Months ExpirationUnit = "Months"
)

type Expiration struct {
	Duration int
	Unit     ExpirationUnit
}

// expireItem is the serialized envelope. A version mismatch or a past
// ExpiresAt reads as a cache miss, never as an error.
type expireItem struct {
	ExpiresAt    int64           `json:"ExpiresAt"` // unix ms
	CacheVersion int             `json:"CacheVersion"`
	Content      json.RawMessage `json:"Content"`
}

// Store is a versioned expiring cache for one kind of item. Keys are
// namespaced under the store name.
type Store[T any] struct {
	kv         KV
	name       string
	version    int
	expiration Expiration
	now        func() time.Time
}

func NewStore[T any](kv KV, name string, version int, expiration Expiration) *Store[T] {
	return &Store[T]{
		kv:         kv,
		name:       name,
		version:    version,
		expiration: expiration,
		now:        time.Now,
	}
}

func (s *Store[T]) key(item string) string {
	return fmt.Sprintf("%s:%s", s.name, item)
}

// GetItem returns (nil, nil) on miss: absent key, version mismatch or
// expired content.
func (s *Store[T]) GetItem(ctx context.Context, item string) (*T, error) {
	raw, err := s.kv.GetBytes(ctx, s.key(item))
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", s.key(item), err)
	}
	if raw == nil {
		return nil, nil
	}

	var envelope expireItem
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Incompatible stored data is a miss, not an error.
		return nil, nil
	}
	if envelope.CacheVersion != s.version {
		return nil, nil
	}
	if envelope.ExpiresAt < s.now().UnixMilli() {
		return nil, nil
	}

	var content T
	if err := json.Unmarshal(envelope.Content, &content); err != nil {
		return nil, nil
	}
	return &content, nil
}

// SetItem stores the content and returns it.
func (s *Store[T]) SetItem(ctx context.Context, item string, content T) (T, error) {
	serialized, err := json.Marshal(content)
	if err != nil {
		return content, fmt.Errorf("cache marshal %s: %w", s.key(item), err)
	}

	expiry := s.expiresAt()
	envelope := expireItem{
		ExpiresAt:    expiry.UnixMilli(),
		CacheVersion: s.version,
		Content:      serialized,
	}
	raw, err := json.Marshal(&envelope)
	if err != nil {
		return content, fmt.Errorf("cache marshal %s: %w", s.key(item), err)
	}

	// The backend evicts on the same deadline the envelope carries, so
	// expired entries do not linger in redis.
	if err := s.kv.SetWithExpiration(ctx, s.key(item), raw, expiry.Sub(s.now())); err != nil {
		return content, fmt.Errorf("cache set %s: %w", s.key(item), err)
	}
	return content, nil
}

// expiresAt aligns expiry to local midnight before adding the
// configured span, so all items written in one day roll over together.
func (s *Store[T]) expiresAt() time.Time {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if s.expiration.Unit == Weeks {
		return midnight.AddDate(0, 0, s.expiration.Duration*7)
	}
	// Months: last day of the target month.
	return time.Date(now.Year(), now.Month()+time.Month(s.expiration.Duration)+1, 0, 0, 0, 0, 0, now.Location())
}
