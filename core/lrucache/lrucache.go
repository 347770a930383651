// Copyright 2025, the OpenKick contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used
cache for string keys and string values. Reading an entry re-ranks it as most
recently used; when the cache is full, the entry that has gone longest without
insertion or a read touch is evicted. When created with compression enabled,
values may be stored zstd-compressed and are transparently decompressed on
retrieval.
*/
package lrucache

import (
	"container/list"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// LRUCache is a fixed-capacity, least-recently-used string cache that is safe
// for concurrent use. Instances must be constructed with [NewLRUCache]; the
// zero value is not ready for use.
type LRUCache struct {
	size      int
	evictList *list.List
	items     map[string]*list.Element
	lock      sync.RWMutex

	compressEnabled bool
	zstdEnc         *zstd.Encoder
	zstdDec         *zstd.Decoder
}

// cacheEntry holds the key/value pair stored in each linked-list element.
type cacheEntry struct {
	key        string
	value      string
	compressed []byte // set instead of value when the entry is stored compressed
}

// NewLRUCache creates a new cache with the specified maximum size.
//
// If compress is true, values are stored zstd-compressed when this reduces
// space and are transparently decompressed by [LRUCache.Get] and
// [LRUCache.Peek].
//
// It returns an error if size is not a positive integer.
func NewLRUCache(size int, compress bool) (*LRUCache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &LRUCache{
		size:            size,
		evictList:       list.New(),
		items:           make(map[string]*list.Element),
		compressEnabled: compress,
	}

	if compress {
		// Reusable encoder/decoder for block (stateless) operations.
		// A nil writer/reader lets us use EncodeAll/DecodeAll without streams.
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, err
		}

		c.zstdEnc = enc
		c.zstdDec = dec
	}

	return c, nil
}

// Add adds or updates the value for key.
//
// If the key exists, it becomes the most recently used.
// If the cache is at capacity, the least recently used item is evicted.
// Add reports whether an eviction occurred.
func (c *LRUCache) Add(key, value string) bool {
	// Compression is the heavy part; do it before taking the lock.
	plain, packed := c.prepareValue(value)

	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)

		if cacheEnt, ok := ent.Value.(*cacheEntry); ok {
			cacheEnt.value = plain
			cacheEnt.compressed = packed
		}

		return false
	}

	c.items[key] = c.evictList.PushFront(&cacheEntry{
		key:        key,
		value:      plain,
		compressed: packed,
	})

	evicted := c.evictList.Len() > c.size
	if evicted {
		c.removeOldest()
	}

	return evicted
}

// Get retrieves the value for key and marks it as most recently used.
// The second result reports whether the key was found.
func (c *LRUCache) Get(key string) (string, bool) {
	// Lock for write since we will move the element to the front.
	c.lock.Lock()

	ent, ok := c.items[key]
	if !ok {
		c.lock.Unlock()
		return "", false
	}

	c.evictList.MoveToFront(ent)

	cacheEnt, ok := ent.Value.(*cacheEntry)
	if !ok {
		c.lock.Unlock()
		return "", false
	}

	plain := cacheEnt.value
	packed := cacheEnt.compressed

	c.lock.Unlock()

	return c.unpackValue(plain, packed)
}

// Peek retrieves the value for key without modifying the LRU order.
// The second result reports whether the key was found.
func (c *LRUCache) Peek(key string) (string, bool) {
	c.lock.RLock()

	ent, ok := c.items[key]
	if !ok {
		c.lock.RUnlock()
		return "", false
	}

	cacheEnt, ok := ent.Value.(*cacheEntry)
	if !ok {
		c.lock.RUnlock()
		return "", false
	}

	plain := cacheEnt.value
	packed := cacheEnt.compressed

	c.lock.RUnlock()

	return c.unpackValue(plain, packed)
}

// Remove deletes the entry associated with key from the cache.
// Remove reports whether the key was present and removed.
func (c *LRUCache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)

		return true
	}

	return false
}

// Purge discards every entry at once.
func (c *LRUCache) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.evictList.Init()
	c.items = make(map[string]*list.Element)
}

// Keys returns a slice of all keys in the cache, from the oldest to the newest.
func (c *LRUCache) Keys() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()

	keys := make([]string, len(c.items))
	index := 0

	// The back of the list is the oldest entry.
	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		if cacheEnt, ok := ent.Value.(*cacheEntry); ok {
			keys[index] = cacheEnt.key
			index++
		}
	}

	return keys
}

// Len returns the current number of items in the cache.
func (c *LRUCache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.evictList.Len()
}

// removeOldest removes the oldest item from both the linked list and the map.
func (c *LRUCache) removeOldest() {
	ent := c.evictList.Back()
	if ent != nil {
		c.removeElement(ent)
	}
}

// removeElement removes a specific list element from the eviction list and
// deletes it from the map.
func (c *LRUCache) removeElement(e *list.Element) {
	c.evictList.Remove(e)

	if kv, ok := e.Value.(*cacheEntry); ok {
		delete(c.items, kv.key)
	}
}

// prepareValue compresses value when compression is enabled and actually
// shrinks it. Exactly one of the results is populated. Safe to call without
// the lock held; zstd encoders support concurrent EncodeAll calls.
func (c *LRUCache) prepareValue(value string) (plain string, packed []byte) {
	if !c.compressEnabled || len(value) == 0 {
		return value, nil
	}

	orig := []byte(value)

	compressed := c.zstdEnc.EncodeAll(orig, nil)
	if len(compressed) < len(orig) {
		return "", compressed
	}

	return value, nil
}

// unpackValue returns the stored value, decompressing when needed. If
// decompression fails (which should be extremely rare), the value is
// considered unavailable.
func (c *LRUCache) unpackValue(plain string, packed []byte) (string, bool) {
	if packed == nil {
		return plain, true
	}

	if c.zstdDec == nil {
		return "", false
	}

	decoded, err := c.zstdDec.DecodeAll(packed, nil)
	if err != nil {
		return "", false
	}

	return string(decoded), true
}
