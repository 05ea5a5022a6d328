package chatmodel

import (
	"container/list"
	"strconv"
	"sync"
)

// EntryCache is an LRU cache of rendered entries, keyed by (entry ID,
// width), bounding memory for long-lived sessions with many messages while
// avoiding re-rendering anything unchanged.
type EntryCache struct {
	mu      sync.RWMutex
	maxSize int
	cache   map[string]*list.Element
	lruList *list.List
}

type cacheEntry struct {
	key   string
	entry *MessageEntry
}

func NewEntryCache(maxSize int) *EntryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &EntryCache{
		maxSize: maxSize,
		cache:   make(map[string]*list.Element),
		lruList: list.New(),
	}
}

func cacheKey(id int64, width int) string {
	return strconv.FormatInt(id, 10) + ":" + strconv.Itoa(width)
}

// Get returns the cached entry for (id, width), or nil if absent. A hit
// moves the entry to the front of the LRU list.
func (c *EntryCache) Get(id int64, width int) *MessageEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(id, width)
	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*cacheEntry).entry
	}
	return nil
}

// Put inserts or updates the cached entry for (id, width), evicting the
// least-recently-used entry if the cache is at capacity.
func (c *EntryCache) Put(id int64, width int, e *MessageEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(id, width)
	if elem, ok := c.cache[key]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value.(*cacheEntry).entry = e
		return
	}
	if c.lruList.Len() >= c.maxSize {
		oldest := c.lruList.Back()
		if oldest != nil {
			delete(c.cache, oldest.Value.(*cacheEntry).key)
			c.lruList.Remove(oldest)
		}
	}
	elem := c.lruList.PushFront(&cacheEntry{key: key, entry: e})
	c.cache[key] = elem
}

// InvalidateAll clears the cache, called on resize (width change) since
// every cached entry's key is width-scoped.
func (c *EntryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*list.Element)
	c.lruList.Init()
}

// Size returns the number of cached entries.
func (c *EntryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
