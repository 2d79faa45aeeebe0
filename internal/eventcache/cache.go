// Package eventcache keeps a bounded window of recently seen event IDs so
// that at-least-once delivery from the chat platform does not get processed
// twice. Eviction is FIFO: once more than capacity IDs have been added, the
// oldest is forgotten and may be processed again if redelivered that late.
package eventcache

import (
	"container/list"
	"sync"
)

const DefaultCapacity = 1000

type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	members  map[string]*list.Element
}

func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		members:  make(map[string]*list.Element),
	}
}

// Exists reports whether id is inside the dedup window.
func (c *Cache) Exists(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.members[id]
	return ok
}

// Add inserts id at the newest position. Adding an id that is already
// present is a no-op; size never exceeds capacity.
func (c *Cache) Add(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(id)
}

// Seen atomically checks membership and inserts. It returns true if id was
// already present. Handlers use this instead of Exists+Add so that two
// concurrent deliveries of the same event cannot both pass the check.
func (c *Cache) Seen(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.members[id]; ok {
		return true
	}
	c.add(id)
	return false
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// add requires c.mu to be held.
func (c *Cache) add(id string) {
	if _, ok := c.members[id]; ok {
		return
	}
	c.members[id] = c.order.PushBack(id)
	if c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.members, oldest.Value.(string))
	}
}
