// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package glossary defines the term store's data model: terms grouped under
categories, and the ordered Store holding every category.
*/
package glossary

import (
	"errors"
	"slices"
	"strings"

	"github.com/self-exiler/NaiBotAssistant/core/collate"
)

// Field length caps, in runes. They are enforced by request validation, not
// by this package.
const (
	MaxCategoryLength    = 20
	MaxNameLength        = 50
	MaxTranslationLength = 100
	MaxNoteLength        = 200
)

// Term is a single glossary entry.
type Term struct {
	Name        string `json:"name"        yaml:"name"`
	Translation string `json:"translation" yaml:"translation"`
	Note        string `json:"note"        yaml:"note"`
}

// ID is the identity used for deduplication: the name without surrounding
// whitespace, compared case-sensitively.
func (t Term) ID() string {
	return strings.TrimSpace(t.Name)
}

// Category is a named, ordered group of terms.
type Category struct {
	Key   string
	Terms []Term
}

// Find returns the index of the term whose ID is id, or -1.
func (c Category) Find(id string) int {
	return slices.IndexFunc(c.Terms, func(t Term) bool { return t.ID() == id })
}

// Store is the full glossary. Categories are kept in collation order of
// their keys once Normalize has run.
type Store []Category

// Clone returns a deep copy of s.
func (s Store) Clone() Store {
	if s == nil {
		return Store{}
	}

	out := make(Store, len(s))
	for i, c := range s {
		out[i] = Category{Key: c.Key, Terms: slices.Clone(c.Terms)}
		if out[i].Terms == nil {
			out[i].Terms = []Term{}
		}
	}

	return out
}

// Index returns the position of the category with the given key, or -1.
func (s Store) Index(key string) int {
	return slices.IndexFunc(s, func(c Category) bool { return c.Key == key })
}

// Get returns the terms of a category. The slice aliases s.
func (s Store) Get(key string) ([]Term, bool) {
	if i := s.Index(key); i >= 0 {
		return s[i].Terms, true
	}

	return nil, false
}

// Set replaces the terms of a category, appending the category if absent.
func (s *Store) Set(key string, terms []Term) {
	if i := s.Index(key); i >= 0 {
		(*s)[i].Terms = terms

		return
	}

	*s = append(*s, Category{Key: key, Terms: terms})
}

// Delete removes a category and reports whether it existed.
func (s *Store) Delete(key string) bool {
	i := s.Index(key)
	if i < 0 {
		return false
	}

	*s = slices.Delete(*s, i, i+1)

	return true
}

// Keys returns the category keys in store order.
func (s Store) Keys() []string {
	keys := make([]string, len(s))
	for i, c := range s {
		keys[i] = c.Key
	}

	return keys
}

// TermCount returns the number of terms across all categories.
func (s Store) TermCount() int {
	n := 0
	for _, c := range s {
		n += len(c.Terms)
	}

	return n
}

// Equal reports whether a and b hold the same categories and terms in the
// same order.
func Equal(a, b Store) bool {
	return slices.EqualFunc(a, b, func(x, y Category) bool {
		return x.Key == y.Key && slices.Equal(x.Terms, y.Terms)
	})
}

// Normalize drops empty categories, then orders every category's terms by
// name and the categories by key using p.
//
// Key failures make the affected sort fall back to code point order and a
// panicking provider leaves that slice as it was; the errors are joined and
// returned for logging.
func (s *Store) Normalize(p collate.Provider) error {
	*s = slices.DeleteFunc(*s, func(c Category) bool { return len(c.Terms) == 0 })

	var errs []error

	for i := range *s {
		if err := SortTerms(p, (*s)[i].Terms); err != nil {
			errs = append(errs, err)
		}
	}

	if err := SortCategories(p, *s); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SortTerms orders terms by name, see collate.SafeSort.
func SortTerms(p collate.Provider, terms []Term) error {
	return collate.SafeSort(p, terms, Term.ID)
}

// SortCategories orders categories by key, see collate.SafeSort. A provider
// that panics leaves the categories in their current order.
func SortCategories(p collate.Provider, s Store) error {
	return collate.SafeSort(p, s, func(c Category) string { return c.Key })
}

// IsOrdered reports whether the category keys are strictly increasing under p.
func (s Store) IsOrdered(p collate.Provider) bool {
	for i := 1; i < len(s); i++ {
		if !collate.Less(p, s[i-1].Key, s[i].Key) {
			return false
		}
	}

	return true
}
