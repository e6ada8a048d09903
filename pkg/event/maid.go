package event

import (
	"sync"

	"github.com/google/uuid"
)

// cleanup is anything the Maid knows how to reverse.
type cleanup func()

// Maid is a scoped teardown registry: it collects signal connections,
// cancel functions and arbitrary cleanup callbacks, keyed so that giving
// a new item under an existing key cleans the old one first. Destroy
// reverses everything in one sweep.
type Maid struct {
	mu        sync.Mutex
	items     map[string]cleanup
	order     []string
	destroyed bool
}

func NewMaid() *Maid {
	return &Maid{items: make(map[string]cleanup)}
}

// Give registers a cleanup function. The key is optional; anonymous
// items get a generated one. Returns the key used.
func (m *Maid) Give(fn func(), key ...string) string {
	name := ""
	if len(key) > 0 {
		name = key[0]
	}
	if name == "" {
		name = uuid.NewString()
	}

	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		fn()
		return name
	}
	prior, replacing := m.items[name]
	m.items[name] = fn
	if !replacing {
		m.order = append(m.order, name)
	}
	m.mu.Unlock()

	if replacing && prior != nil {
		prior()
	}
	return name
}

// GiveConnection registers a signal connection for disconnection on
// teardown.
func (m *Maid) GiveConnection(conn Connection, key ...string) string {
	return m.Give(conn.Disconnect, key...)
}

// Clean runs and removes the item under key, if any.
func (m *Maid) Clean(key string) {
	m.mu.Lock()
	fn, ok := m.items[key]
	if ok {
		delete(m.items, key)
	}
	m.mu.Unlock()

	if ok && fn != nil {
		fn()
	}
}

// Destroy reverses every held item, most recent first. The maid accepts
// no further items afterwards; late Gives run their cleanup immediately.
func (m *Maid) Destroy() {
	m.mu.Lock()
	if m.destroyed {
		m.mu.Unlock()
		return
	}
	m.destroyed = true
	order := m.order
	items := m.items
	m.order = nil
	m.items = make(map[string]cleanup)
	m.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		if fn, ok := items[order[i]]; ok && fn != nil {
			fn()
		}
	}
}
