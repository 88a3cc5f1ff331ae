// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

// Package bootstrap assembles the glossary stack from the configuration.
// Both the server and naibotctl go through Open so they agree on file
// locations, collation and mirroring.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/collate"
	"github.com/self-exiler/NaiBotAssistant/core/document"
	"github.com/self-exiler/NaiBotAssistant/core/document/mirror"
	"github.com/self-exiler/NaiBotAssistant/core/termcache"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

// Stack is a loaded glossary.
type Stack struct {
	Document *document.Document
	Cache    *termcache.Cache
	Service  *terms.Service
}

// Open builds the collator, the optional S3 mirror and the document, then
// loads the cache. A corrupt document is quarantined and logged; it does not
// fail Open. A document that exists but cannot be read does.
func Open(ctx context.Context, cfg *config.ServerConfig) (*Stack, error) {
	collator, err := collate.New(collate.Mode(cfg.Collation.Mode), cfg.Collation.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to create collator: %w", err)
	}

	if cfg.Collation.CacheSize > 0 {
		if collator, err = collate.NewKeyCache(collator, cfg.Collation.CacheSize); err != nil {
			return nil, err
		}
	}

	opts := document.Options{
		Path:          cfg.Store.DataFile,
		BackupDir:     cfg.Store.BackupDir,
		QuarantineDir: cfg.Store.QuarantineDir,
	}

	if cfg.Mirror.Enabled {
		m, err := mirror.NewS3(ctx, mirror.Config{
			Bucket:       cfg.Mirror.Bucket,
			Region:       cfg.Mirror.Region,
			Endpoint:     cfg.Mirror.Endpoint,
			Prefix:       cfg.Mirror.Prefix,
			UsePathStyle: cfg.Mirror.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create backup mirror: %w", err)
		}

		opts.Mirror = m
		opts.MirrorTimeout = cfg.Mirror.Timeout

		log.Info().
			Str("bucket", cfg.Mirror.Bucket).
			Str("prefix", cfg.Mirror.Prefix).
			Msg("Mirroring backups to S3")
	}

	doc := document.New(opts)
	cache := termcache.New(doc)

	if err := cache.Load(); err != nil && !errors.Is(err, document.ErrCorrupt) {
		_ = doc.Close()

		return nil, fmt.Errorf("failed to load glossary: %w", err)
	}

	return &Stack{
		Document: doc,
		Cache:    cache,
		Service:  terms.New(cache, collator),
	}, nil
}

// Close waits for pending mirror uploads.
func (s *Stack) Close() error {
	return s.Document.Close()
}
