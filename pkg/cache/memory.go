package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMemoryLimit bounds a [MemoryCache] opened with "memory".
const DefaultMemoryLimit = 256 << 20

// MemoryCache is an in-process LRU cache bounded by total entry size.
// It is safe for concurrent use.
type MemoryCache struct {
	mu     sync.Mutex
	limit  int
	size   int
	order  *list.List // front is most recently used
	items  map[string]*list.Element
	closed bool
	now    func() time.Time
}

type memEntry struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache returns a cache holding at most limit bytes of entry data.
// Entries larger than limit are not stored.
func NewMemoryCache(limit int) *MemoryCache {
	return &MemoryCache{
		limit: limit,
		order: list.New(),
		items: make(map[string]*list.Element),
		now:   time.Now,
	}
}

// Get implements [Cache].
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, false, ErrClosed
	}

	el, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*memEntry)
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.remove(el)
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	return e.data, true, nil
}

// Set implements [Cache]. The data slice is stored as is and must not be
// modified afterwards.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	if len(data) > c.limit {
		return nil
	}
	e := &memEntry{key: key, data: data}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = c.order.PushFront(e)
	c.size += len(data)

	for c.size > c.limit {
		c.remove(c.order.Back())
	}
	return nil
}

// Delete implements [Cache].
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	return nil
}

// Clear drops all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	clear(c.items)
	c.size = 0
	return nil
}

// Len returns the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Close drops all entries; later calls to Get and Set return [ErrClosed].
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.order.Init()
	clear(c.items)
	c.size = 0
	return nil
}

func (c *MemoryCache) remove(el *list.Element) {
	e := c.order.Remove(el).(*memEntry)
	delete(c.items, e.key)
	c.size -= len(e.data)
}

var (
	_ Cache   = (*MemoryCache)(nil)
	_ Clearer = (*MemoryCache)(nil)
)
