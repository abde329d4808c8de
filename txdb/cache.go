// Copyright (c) 2024 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txdb

import "container/list"

// coinCache is a bounded LRU over serialized credit bytes, keyed by
// hash||index. It is a strict read-through accelerator for getCredits: the
// KV store remains the source of truth, and every push/unpush must happen
// in the same batch as the matching saveCredit/removeCredit call.
//
// The base eviction bookkeeping (a doubly linked list plus a map of list
// nodes for near-O(1) lookup, insert, and delete) follows the same shape
// as decred/dcrd/lru's Cache, generalized here to carry a value alongside
// each entry instead of only tracking membership, and split into a
// committed layer and a pending overlay so the cache can participate in
// the store's batch protocol (start/commit/drop) without leaking
// speculative reads from a rolled-back write.
type coinCache struct {
	cap       int
	committed map[string]*list.Element
	order     *list.List // elements are *cacheEntry; front = most recently used

	pending map[string]*cacheOp
}

type cacheEntry struct {
	key   string
	value []byte
}

type cacheOp struct {
	value   []byte
	deleted bool
}

func newCoinCache(capacity uint) *coinCache {
	if capacity == 0 {
		capacity = defaultCacheSize
	}
	return &coinCache{
		cap:       int(capacity),
		committed: make(map[string]*list.Element),
		order:     list.New(),
	}
}

// start snapshots a fresh pending overlay for a new batch.
func (c *coinCache) start() {
	c.pending = make(map[string]*cacheOp)
}

// push stages a set of key to value, to be published on commit. This is
// the cache-side counterpart of saveCredit.
func (c *coinCache) push(key string, value []byte) {
	c.pending[key] = &cacheOp{value: append([]byte(nil), value...)}
}

// unpush stages a delete of key, to be published on commit. This is the
// cache-side counterpart of removeCredit.
func (c *coinCache) unpush(key string) {
	c.pending[key] = &cacheOp{deleted: true}
}

// get returns the cached value for key, checking the pending overlay
// first so a batch observes its own uncommitted writes.
func (c *coinCache) get(key string) ([]byte, bool) {
	if op, ok := c.pending[key]; ok {
		if op.deleted {
			return nil, false
		}
		return op.value, true
	}
	return c.getCommitted(key)
}

func (c *coinCache) getCommitted(key string) ([]byte, bool) {
	el, ok := c.committed[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).value, true
}

// has reports whether key is cached, pending writes included.
func (c *coinCache) has(key string) bool {
	_, ok := c.get(key)
	return ok
}

// set populates the committed layer directly, bypassing the pending
// overlay. Used by read-only query paths that aren't inside a write
// batch.
func (c *coinCache) set(key string, value []byte) {
	if el, ok := c.committed[key]; ok {
		el.Value.(*cacheEntry).value = append([]byte(nil), value...)
		c.order.MoveToFront(el)
		return
	}
	c.evictIfFull()
	el := c.order.PushFront(&cacheEntry{key: key, value: append([]byte(nil), value...)})
	c.committed[key] = el
}

func (c *coinCache) evictIfFull() {
	if c.cap <= 0 || len(c.committed) < c.cap {
		return
	}
	back := c.order.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*cacheEntry)
	delete(c.committed, entry.key)
	c.order.Remove(back)
}

// drop discards the pending overlay without applying it. The committed
// layer is untouched, matching the KV batch it shadows.
func (c *coinCache) drop() {
	c.pending = nil
}

// commit applies every staged op into the committed layer in the order
// they were staged is not required (last write per key wins, same as the
// underlying KV store), then clears the overlay.
func (c *coinCache) commit() {
	for key, op := range c.pending {
		if op.deleted {
			if el, ok := c.committed[key]; ok {
				delete(c.committed, key)
				c.order.Remove(el)
			}
			continue
		}
		c.set(key, op.value)
	}
	c.pending = nil
}

// coinCacheKey builds the cache key for an outpoint.
func coinCacheKey(hash [32]byte, index uint32) string {
	b := make([]byte, 36)
	copy(b, hash[:])
	byteOrder.PutUint32(b[32:], index)
	return string(b)
}
