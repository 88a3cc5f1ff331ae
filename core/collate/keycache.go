// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package collate

import (
	"container/list"
	"errors"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ErrInvalidCacheSize = errors.New("key cache size must be positive")

var keyCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "naibot",
	Subsystem: "collate",
	Name:      "key_cache_lookups_total",
	Help:      "Collation key cache lookups by result.",
}, []string{"result"})

// KeyCache is a Provider that remembers the most recently used keys of
// another Provider. Every reconciliation re-sorts whole categories, so the
// same names are keyed over and over.
//
// Failed keys are not cached. Returned keys are copies; callers may modify
// them.
type KeyCache struct {
	provider Provider
	size     int

	lock      sync.Mutex
	evictList *list.List               // front is the most recently used
	items     map[string]*list.Element // text -> element holding *keyEntry
}

type keyEntry struct {
	text string
	key  Key
}

// NewKeyCache wraps p with a cache of at most size keys.
func NewKeyCache(p Provider, size int) (*KeyCache, error) {
	if size <= 0 {
		return nil, ErrInvalidCacheSize
	}

	return &KeyCache{
		provider:  p,
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
	}, nil
}

// Key implements Provider.
func (c *KeyCache) Key(text string) (Key, error) {
	if key, ok := c.get(text); ok {
		keyCacheLookups.WithLabelValues("hit").Inc()

		return key, nil
	}

	keyCacheLookups.WithLabelValues("miss").Inc()

	// Computed outside the lock; two callers may key the same text at once,
	// which only costs the duplicate work.
	key, err := c.provider.Key(text)
	if err != nil {
		return nil, err
	}

	c.add(text, slices.Clone(key))

	return key, nil
}

// Len returns the number of cached keys.
func (c *KeyCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

func (c *KeyCache) get(text string) (Key, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	ent, ok := c.items[text]
	if !ok {
		return nil, false
	}

	c.evictList.MoveToFront(ent)

	return slices.Clone(ent.Value.(*keyEntry).key), true
}

func (c *KeyCache) add(text string, key Key) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[text]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*keyEntry).key = key

		return
	}

	c.items[text] = c.evictList.PushFront(&keyEntry{text: text, key: key})

	if c.evictList.Len() > c.size {
		oldest := c.evictList.Back()
		c.evictList.Remove(oldest)
		delete(c.items, oldest.Value.(*keyEntry).text)
	}
}
