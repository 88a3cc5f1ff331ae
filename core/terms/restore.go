// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

// BackupReader loads the store saved in a named backup.
type BackupReader interface {
	ReadBackup(name string) (glossary.Store, error)
}

// Restore replaces the whole store with the contents of a backup. The
// current document is itself rotated into a new backup by the write, so a
// restore can be undone.
func (s *Service) Restore(ctx context.Context, backups BackupReader, name string) (Stats, error) {
	store, err := backups.ReadBackup(name)
	if err != nil {
		return Stats{}, err
	}

	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.normalize(&store, "restore")

	err = s.cache.Replace(store)

	log.Info().
		Err(err).
		Str("backup", name).
		Int("categories", len(store)).
		Int("terms", store.TermCount()).
		Msg("Restored backup")

	s.history.record(OpRestore, name, store.TermCount(), err)

	return Stats{Categories: len(store), Terms: store.TermCount()}, err
}
