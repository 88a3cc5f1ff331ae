// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package termcache holds the authoritative in-memory glossary.

All access goes through one mutex. Snapshot hands out deep copies and
Replace swaps the whole store and writes it through to the backend while
still holding the lock, so writes are linearizable and readers never see a
half-applied change.

Replace updates memory before the durable write. If the write fails the
cache keeps the new state and the error is returned: until a later write
succeeds, a crash loses that change.
*/
package termcache

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/core/document"
	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

const errNotLoaded = "termcache: used before Load"

// Backend is the durable side of the cache.
type Backend interface {
	Read() (glossary.Store, error)
	Write(glossary.Store) error
}

// Cache is the process-wide glossary. The zero value is not usable; create
// one with New and call Load before anything else.
type Cache struct {
	mu      sync.Mutex
	store   glossary.Store
	backend Backend
	loaded  bool
}

// New returns an unloaded cache over backend.
func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// Load reads the backend into memory. Errors from the backend are returned
// to the caller, which decides whether they are fatal; whatever store the
// backend produced (empty for a corrupt document) becomes the cache content.
func (c *Cache) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	store, err := c.backend.Read()
	if store == nil {
		store = glossary.Store{}
	}

	c.store = store
	c.loaded = true

	observe(c.store)

	if err != nil {
		log.Warn().
			Err(err).
			Int("categories", len(store)).
			Msg("Loaded glossary with errors")
	} else {
		log.Info().
			Int("categories", len(store)).
			Int("terms", store.TermCount()).
			Msg("Loaded glossary")
	}

	return err
}

// Loaded reports whether Load has run.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.loaded
}

// Snapshot returns a deep copy of the current store. It never touches the
// backend.
func (c *Cache) Snapshot() glossary.Store {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mustBeLoaded()

	return c.store.Clone()
}

// Replace makes next the current store and writes it to the backend. next
// must already be normalized; the cache keeps its own copy.
//
// The cache holds next even if the write fails. The returned error is the
// backend's, which may be non-fatal (see document.ErrBackup).
func (c *Cache) Replace(next glossary.Store) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mustBeLoaded()

	return c.replaceLocked(next.Clone())
}

// Update runs fn on a private copy of the current store and replaces the
// store with the copy fn leaves behind, all under one lock acquisition, so
// concurrent updates never lose each other.
//
// If fn returns an error nothing is replaced and the error is returned.
func (c *Cache) Update(fn func(*glossary.Store) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mustBeLoaded()

	next := c.store.Clone()
	if err := fn(&next); err != nil {
		return err
	}

	return c.replaceLocked(next)
}

func (c *Cache) replaceLocked(next glossary.Store) error {
	c.store = next

	observe(next)

	err := c.backend.Write(next)

	switch {
	case err == nil:
		replacesTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, document.ErrBackup):
		replacesTotal.WithLabelValues("backup_failed").Inc()
	default:
		replacesTotal.WithLabelValues("error").Inc()
	}

	return err
}

func (c *Cache) mustBeLoaded() {
	if !c.loaded {
		panic(errNotLoaded)
	}
}
