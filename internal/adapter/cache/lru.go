package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LRU is a thread-safe in-process Store with per-entry expiry.
type LRU struct {
	maxEntries int
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   []byte
	expires time.Time
	prev    *entry
	next    *entry
}

// NewLRU creates an LRU holding at most maxEntries values. A nil clock uses the real clock.
func NewLRU(maxEntries int, clock clockwork.Clock) *LRU {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LRU{
		maxEntries: maxEntries,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.clock.Now().Before(e.expires) {
		c.drop(e)
		return nil, false, nil
	}
	c.moveToFront(e)
	return e.value, true, nil
}

func (c *LRU) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.clock.Now().Add(ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return nil
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.drop(c.tail)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRU) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *LRU) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *LRU) drop(e *entry) {
	if e == nil {
		return
	}
	delete(c.entries, e.key)
	c.unlink(e)
}
