package event

import (
	"sync"
)

// Connection is the handle returned by Connect. Disconnect removes the
// subscriber; it is safe to call more than once.
type Connection interface {
	Disconnect()
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Signal is a typed fan-out notification. Fire dispatches synchronously
// to every subscriber in subscription order, on the firing goroutine.
type Signal[T any] struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
}

func NewSignal[T any]() *Signal[T] {
	return &Signal[T]{}
}

func (s *Signal[T]) Connect(fn func(T)) Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	return &connection[T]{signal: s, id: id}
}

func (s *Signal[T]) Fire(payload T) {
	// Snapshot under the lock so a handler may disconnect mid-dispatch.
	s.mu.Lock()
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(payload)
	}
}

func (s *Signal[T]) disconnect(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

type connection[T any] struct {
	signal *Signal[T]
	once   sync.Once
	id     uint64
}

func (c *connection[T]) Disconnect() {
	c.once.Do(func() { c.signal.disconnect(c.id) })
}

// Unit is the payload for signals that carry no data.
type Unit struct{}

// UnitSignal is sugar for the common zero-argument notification.
type UnitSignal = Signal[Unit]

func NewUnitSignal() *UnitSignal {
	return NewSignal[Unit]()
}

// FireUnit fires a zero-argument signal.
func FireUnit(s *UnitSignal) {
	s.Fire(Unit{})
}
