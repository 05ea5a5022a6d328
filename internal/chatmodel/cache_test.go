package chatmodel

import "testing"

func TestEntryCacheGetMiss(t *testing.T) {
	c := NewEntryCache(10)
	if e := c.Get(1, 80); e != nil {
		t.Error("expected miss on empty cache")
	}
}

func TestEntryCachePutThenGet(t *testing.T) {
	c := NewEntryCache(10)
	entry := &MessageEntry{ID: 1, Sender: SenderSystem, Text: "hi"}
	c.Put(1, 80, entry)

	got := c.Get(1, 80)
	if got != entry {
		t.Error("expected Get to return the entry stored under the same key")
	}
	if got := c.Get(1, 40); got != nil {
		t.Error("expected miss for a different width under the same ID")
	}
}

func TestEntryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewEntryCache(2)
	a := &MessageEntry{ID: 1}
	b := &MessageEntry{ID: 2}
	cc := &MessageEntry{ID: 3}

	c.Put(1, 80, a)
	c.Put(2, 80, b)
	c.Get(1, 80) // touch a, making b the LRU entry
	c.Put(3, 80, cc)

	if c.Get(2, 80) != nil {
		t.Error("expected least-recently-used entry to be evicted")
	}
	if c.Get(1, 80) != a || c.Get(3, 80) != cc {
		t.Error("expected recently used entries to remain cached")
	}
}

func TestEntryCacheInvalidateAllClears(t *testing.T) {
	c := NewEntryCache(10)
	c.Put(1, 80, &MessageEntry{ID: 1})
	c.InvalidateAll()
	if c.Size() != 0 {
		t.Errorf("expected empty cache after InvalidateAll, got size %d", c.Size())
	}
	if c.Get(1, 80) != nil {
		t.Error("expected miss after InvalidateAll")
	}
}

func TestEntryCacheSizeTracksEntries(t *testing.T) {
	c := NewEntryCache(10)
	c.Put(1, 80, &MessageEntry{ID: 1})
	c.Put(2, 80, &MessageEntry{ID: 2})
	if c.Size() != 2 {
		t.Errorf("expected size 2, got %d", c.Size())
	}
}
