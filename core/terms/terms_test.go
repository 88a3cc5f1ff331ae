// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/self-exiler/NaiBotAssistant/core/collate"
	"github.com/self-exiler/NaiBotAssistant/core/glossary"
	"github.com/self-exiler/NaiBotAssistant/core/termcache"
)

type memoryBackend struct {
	mu       sync.Mutex
	stored   glossary.Store
	writeErr error
	backups  map[string]glossary.Store
}

func (b *memoryBackend) Read() (glossary.Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.stored.Clone(), nil
}

func (b *memoryBackend) Write(s glossary.Store) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.writeErr != nil {
		return b.writeErr
	}

	b.stored = s.Clone()

	return nil
}

func (b *memoryBackend) ReadBackup(name string) (glossary.Store, error) {
	s, ok := b.backups[name]
	if !ok {
		return nil, errors.New("no such backup")
	}

	return s.Clone(), nil
}

func newService(t *testing.T, initial glossary.Store) (*Service, *memoryBackend) {
	t.Helper()

	backend := &memoryBackend{stored: initial}
	cache := termcache.New(backend)
	require.NoError(t, cache.Load())

	return New(cache, collate.Codepoint{}), backend
}

func term(name, translation, note string) glossary.Term {
	return glossary.Term{Name: name, Translation: translation, Note: note}
}

// names flattens a store into category -> names for compact assertions.
func names(s glossary.Store) map[string][]string {
	out := map[string][]string{}

	for _, c := range s {
		for _, t := range c.Terms {
			out[c.Key] = append(out[c.Key], t.Name)
		}
	}

	return out
}

func assertGloballyUnique(t *testing.T, s glossary.Store) {
	t.Helper()

	owner := map[string]string{}

	for _, c := range s {
		for _, tm := range c.Terms {
			prev, dup := owner[tm.Name]
			assert.False(t, dup, "%q is in both %q and %q", tm.Name, prev, c.Key)

			owner[tm.Name] = c.Key
		}
	}
}
