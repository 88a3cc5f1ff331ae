// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package terms implements every operation on the glossary: reconciling an
editor session into the store, single-entry upserts, deletions, queries,
prompt assembly, CSV import/export and restoring backups. CSV imports and
restores are remembered in a short in-memory History.

All writes funnel through termcache.Cache, which serializes them and writes
them through to disk.
*/
package terms

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/core/collate"
	"github.com/self-exiler/NaiBotAssistant/core/glossary"
	"github.com/self-exiler/NaiBotAssistant/core/termcache"
)

// Errors returned for invalid input. Nothing is modified when one of them
// is returned.
var (
	ErrInvalidEdit           = errors.New("editorData must map category names to lists of terms")
	ErrMissingLoadedCategory = errors.New("loadedCategory is required")
	ErrEmptyCategory         = errors.New("category must not be empty")
	ErrEmptyName             = errors.New("name must not be empty")
	ErrNotFound              = errors.New("not found")
	ErrInvalidImportMode     = errors.New("import mode must be increment or replace")
	ErrNoSelection           = errors.New("no terms selected")
	ErrEmptyKeyword          = errors.New("search keyword must not be empty")
)

// Service owns the glossary operations for one cache.
type Service struct {
	cache    *termcache.Cache
	collator collate.Provider
	history  *History
}

// New returns a Service. The cache must be loaded before any method is called.
func New(cache *termcache.Cache, collator collate.Provider) *Service {
	return &Service{cache: cache, collator: collator, history: newHistory(historyLimit)}
}

// Snapshot returns a private copy of the current store.
func (s *Service) Snapshot() glossary.Store {
	return s.cache.Snapshot()
}

// normalize orders store and logs, but otherwise ignores, collation fallbacks.
func (s *Service) normalize(store *glossary.Store, op string) {
	if err := store.Normalize(s.collator); err != nil {
		log.Warn().
			Err(err).
			Str("op", op).
			Msg("Collation failed, fell back to code point order")
	}
}
