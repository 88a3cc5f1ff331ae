// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/core/collate"
	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

// Edit is an editor session: the complete intended term lists of some
// categories, plus the category the editor had loaded.
type Edit struct {
	Categories glossary.Store
	Loaded     string
}

type editPayload struct {
	EditorData     json.RawMessage `json:"editorData"`
	LoadedCategory string          `json:"loadedCategory"`
}

// ParseEdit decodes {"editorData": {...}, "loadedCategory": "..."}.
func ParseEdit(raw []byte) (Edit, error) {
	var payload editPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Edit{}, fmt.Errorf("%w: %w", ErrInvalidEdit, err)
	}

	data := bytes.TrimSpace(payload.EditorData)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return Edit{}, ErrInvalidEdit
	}

	categories, err := glossary.Decode(bytes.NewReader(data))
	if err != nil {
		return Edit{}, fmt.Errorf("%w: %w", ErrInvalidEdit, err)
	}

	edit := Edit{Categories: categories, Loaded: strings.TrimSpace(payload.LoadedCategory)}
	if edit.Loaded == "" {
		return Edit{}, ErrMissingLoadedCategory
	}

	return edit, nil
}

// ReconcileResult summarizes a reconciliation.
type ReconcileResult struct {
	Categories int      `json:"categories"`
	Terms      int      `json:"terms"`
	Removed    []string `json:"removedCategories"`
}

// Plan is a merged store computed from one snapshot, waiting to be committed.
type Plan struct {
	Next   glossary.Store
	Result ReconcileResult

	service *Service
	loaded  string
	edited  int
}

// Plan merges edit into a snapshot of the current store without touching
// the cache.
func (s *Service) Plan(edit Edit) (*Plan, error) {
	if strings.TrimSpace(edit.Loaded) == "" {
		return nil, ErrMissingLoadedCategory
	}

	current := s.cache.Snapshot()

	next, warn := Merge(s.collator, current, edit)
	if warn != nil {
		log.Warn().
			Err(warn).
			Str("loaded", edit.Loaded).
			Msg("Sorting during reconciliation fell back")
	}

	return &Plan{
		Next: next,
		Result: ReconcileResult{
			Categories: len(next),
			Terms:      next.TermCount(),
			Removed:    removedKeys(current, next),
		},
		service: s,
		loaded:  edit.Loaded,
		edited:  len(edit.Categories),
	}, nil
}

// Commit replaces the whole store with the planned one.
//
// Nothing checks whether the store changed since the plan was made. Two
// plans built from the same snapshot both commit, and the later one wins
// for every category, including ones it never touched.
//
// ctx is only checked before committing; once the commit has started it
// runs to completion.
func (p *Plan) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.service.cache.Replace(p.Next); err != nil {
		return err
	}

	log.Info().
		Str("loaded", p.loaded).
		Int("edited", p.edited).
		Strs("removed", p.Result.Removed).
		Msg("Reconciled editor session")

	return nil
}

// Reconcile plans and commits edit in one go.
func (s *Service) Reconcile(ctx context.Context, edit Edit) (ReconcileResult, error) {
	plan, err := s.Plan(edit)
	if err != nil {
		return ReconcileResult{}, err
	}

	return plan.Result, plan.Commit(ctx)
}

// Merge computes the store that results from applying edit to current. It
// is pure: current and edit are not modified.
//
//  1. Every non-blank name in the edit is collected.
//  2. The loaded category loses all its terms. Every other category loses
//     the terms whose name the edit places somewhere; categories left empty
//     are removed.
//  3. Each edited category gets its non-blank incoming terms appended to
//     what survived of it and sorted by name. A category with no non-blank
//     incoming terms is left out entirely.
//  4. Categories are sorted by key.
//
// A name that occurs more than once in the edit is kept once: within a
// category the last occurrence wins, across categories the first category
// in key order keeps it. Names that already occurred in several untouched
// categories are reduced to the first of them, so no name is ever in two
// categories afterwards.
//
// The returned error only reports sort fallbacks; the store is always
// complete. A provider failure makes the affected sort use code point
// order; a panicking provider leaves that category's terms unsorted.
func Merge(p collate.Provider, current glossary.Store, edit Edit) (glossary.Store, error) {
	var warnings []error

	incoming, moved, err := prepareIncoming(p, edit.Categories)
	if err != nil {
		warnings = append(warnings, err)
	}

	seen := make(map[string]bool)
	result := glossary.Store{}

	for _, c := range current {
		if c.Key == edit.Loaded {
			continue
		}

		kept := make([]glossary.Term, 0, len(c.Terms))

		for _, t := range c.Terms {
			id := t.ID()
			if moved[id] || seen[id] {
				continue
			}

			seen[id] = true

			kept = append(kept, t)
		}

		if len(kept) > 0 {
			result = append(result, glossary.Category{Key: c.Key, Terms: kept})
		}
	}

	for _, c := range incoming {
		survivors, _ := result.Get(c.Key)

		// Survivors already went through the duplicate filter above.
		combined := append(slices.Clone(survivors), c.Terms...)

		if err := collate.SafeSort(p, combined, glossary.Term.ID); err != nil {
			warnings = append(warnings, fmt.Errorf("category %q: %w", c.Key, err))
		}

		result.Set(c.Key, combined)
	}

	// Edited categories without a single valid term end up absent.
	for _, c := range edit.Categories {
		if incoming.Index(c.Key) < 0 {
			result.Delete(c.Key)
		}
	}

	if err := glossary.SortCategories(p, result); err != nil {
		warnings = append(warnings, err)
	}

	return result, errors.Join(warnings...)
}

// prepareIncoming filters, trims and deduplicates the edit. It returns the
// surviving categories in key order and the set of every non-blank name.
func prepareIncoming(p collate.Provider, edited glossary.Store) (glossary.Store, map[string]bool, error) {
	ordered := edited.Clone()
	err := glossary.SortCategories(p, ordered)

	moved := make(map[string]bool)
	out := glossary.Store{}

	for _, c := range ordered {
		if strings.TrimSpace(c.Key) == "" {
			continue
		}

		terms := []glossary.Term{}
		position := map[string]int{}

		for _, t := range c.Terms {
			id := t.ID()
			if id == "" {
				continue
			}

			t.Name = id

			if i, ok := position[id]; ok {
				terms[i] = t

				continue
			}

			if moved[id] {
				continue
			}

			position[id] = len(terms)
			terms = append(terms, t)
		}

		for id := range position {
			moved[id] = true
		}

		if len(terms) > 0 {
			out = append(out, glossary.Category{Key: c.Key, Terms: terms})
		}
	}

	return out, moved, err
}

func removedKeys(before, after glossary.Store) []string {
	removed := []string{}

	for _, c := range before {
		if after.Index(c.Key) < 0 {
			removed = append(removed, c.Key)
		}
	}

	return removed
}
