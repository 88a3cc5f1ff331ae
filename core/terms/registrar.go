// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

// Upsert adds e to its category, or updates the translation and note of the
// term with the same trimmed name. The category is created if missing.
//
// Only the target category is checked for an existing name; the same name
// may live on in other categories.
//
// The entry is validated first. created reports whether a new term was
// appended. A non-nil error together with created means the cache holds the
// change but persisting it failed.
func (s *Service) Upsert(ctx context.Context, e Entry) (bool, error) {
	e = e.Trimmed()

	if err := e.Validate(); err != nil {
		return false, err
	}

	if err := ctx.Err(); err != nil {
		return false, err
	}

	var created bool

	err := s.cache.Update(func(store *glossary.Store) error {
		created = upsert(store, e)
		s.normalize(store, "upsert")

		return nil
	})

	log.Info().
		Err(err).
		Str("category", e.Category).
		Str("name", e.Name).
		Bool("created", created).
		Msg("Upserted term")

	return created, err
}

// upsert applies a trimmed entry to store and reports whether it appended.
func upsert(store *glossary.Store, e Entry) bool {
	i := store.Index(e.Category)
	if i < 0 {
		*store = append(*store, glossary.Category{Key: e.Category, Terms: []glossary.Term{e.Term()}})

		return true
	}

	c := &(*store)[i]

	if j := c.Find(e.Name); j >= 0 {
		c.Terms[j].Translation = e.Translation
		c.Terms[j].Note = e.Note

		return false
	}

	c.Terms = append(c.Terms, e.Term())

	return true
}

// DeleteTerm removes one term. A category left without terms is removed too.
func (s *Service) DeleteTerm(ctx context.Context, category, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	category, name = strings.TrimSpace(category), strings.TrimSpace(name)

	if category == "" {
		return ErrEmptyCategory
	}

	if name == "" {
		return ErrEmptyName
	}

	err := s.cache.Update(func(store *glossary.Store) error {
		i := store.Index(category)
		if i < 0 {
			return ErrNotFound
		}

		j := (*store)[i].Find(name)
		if j < 0 {
			return ErrNotFound
		}

		c := &(*store)[i]
		c.Terms = append(c.Terms[:j], c.Terms[j+1:]...)

		if len(c.Terms) == 0 {
			store.Delete(category)
		}

		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}

	log.Info().
		Err(err).
		Str("category", category).
		Str("name", name).
		Msg("Deleted term")

	return err
}

// errNothingDeleted keeps DeleteTerms from writing an unchanged store.
var errNothingDeleted = errors.New("nothing deleted")

// DeleteTerms removes every selected term in one store update and returns
// how many were removed. Selections that match nothing, or that have a blank
// category or name, are skipped. Categories left without terms are removed.
func (s *Service) DeleteTerms(ctx context.Context, selections []Selection) (int, error) {
	if len(selections) == 0 {
		return 0, ErrNoSelection
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var deleted int

	err := s.cache.Update(func(store *glossary.Store) error {
		deleted = 0

		for _, sel := range selections {
			i := store.Index(strings.TrimSpace(sel.Category))
			if i < 0 {
				continue
			}

			c := &(*store)[i]

			name := strings.TrimSpace(sel.Name)
			if name == "" {
				continue
			}

			if j := c.Find(name); j >= 0 {
				c.Terms = append(c.Terms[:j], c.Terms[j+1:]...)
				deleted++
			}
		}

		if deleted == 0 {
			return errNothingDeleted
		}

		*store = slices.DeleteFunc(*store, func(c glossary.Category) bool { return len(c.Terms) == 0 })

		return nil
	})
	if errors.Is(err, errNothingDeleted) {
		return 0, nil
	}

	log.Info().
		Err(err).
		Int("selected", len(selections)).
		Int("deleted", deleted).
		Msg("Deleted terms")

	return deleted, err
}
