// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

// CategoryInfo is a category key with its number of terms.
type CategoryInfo struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Categories lists every category in store order.
func (s *Service) Categories() []CategoryInfo {
	store := s.cache.Snapshot()

	out := make([]CategoryInfo, len(store))
	for i, c := range store {
		out[i] = CategoryInfo{Key: c.Key, Count: len(c.Terms)}
	}

	return out
}

// Terms returns the terms of one category, or ErrNotFound.
func (s *Service) Terms(category string) ([]glossary.Term, error) {
	terms, ok := s.cache.Snapshot().Get(strings.TrimSpace(category))
	if !ok {
		return nil, ErrNotFound
	}

	return terms, nil
}

// Entries flattens one category, or the whole store if category is empty.
// An unknown category yields an empty list.
func (s *Service) Entries(category string) []Entry {
	return flatten(s.cache.Snapshot(), strings.TrimSpace(category))
}

func flatten(store glossary.Store, category string) []Entry {
	out := []Entry{}

	for _, c := range store {
		if category != "" && c.Key != category {
			continue
		}

		for _, t := range c.Terms {
			out = append(out, Entry{Category: c.Key, Name: t.Name, Translation: t.Translation, Note: t.Note})
		}
	}

	return out
}

// Pagination describes one page of a result set. Pages is 0 for an empty set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// SearchQuery selects entries whose name, translation or note contains
// Keyword, ignoring case. Category optionally restricts the search.
type SearchQuery struct {
	Keyword  string
	Category string
	Page     int
	Limit    int
}

// SearchResult is one page of matches in store order.
type SearchResult struct {
	Entries    []Entry    `json:"entries"`
	Pagination Pagination `json:"pagination"`
}

// DefaultLimit is the page size used when a query does not set one.
const DefaultLimit = 20

// Search runs q. Pages start at 1; a page past the end is empty.
func (s *Service) Search(q SearchQuery) (SearchResult, error) {
	q.Page = max(q.Page, 1)
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}

	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		return SearchResult{}, ErrEmptyKeyword
	}

	fold := cases.Fold()
	needle := fold.String(keyword)

	matches := []Entry{}

	for _, e := range flatten(s.cache.Snapshot(), strings.TrimSpace(q.Category)) {
		if strings.Contains(fold.String(e.Name), needle) ||
			strings.Contains(fold.String(e.Translation), needle) ||
			strings.Contains(fold.String(e.Note), needle) {
			matches = append(matches, e)
		}
	}

	page := Pagination{Page: q.Page, Limit: q.Limit, Total: len(matches)}
	page.Pages = page.Total / page.Limit
	if page.Total%page.Limit != 0 {
		page.Pages++
	}

	// Compared in pages first so that a huge page number cannot overflow.
	start := len(matches)
	if page.Page-1 < page.Pages {
		start = (page.Page - 1) * page.Limit
	}

	end := start + min(page.Limit, len(matches)-start)

	return SearchResult{Entries: matches[start:end], Pagination: page}, nil
}

// Stats holds store totals.
type Stats struct {
	Categories int `json:"totalCategories"`
	Terms      int `json:"totalTerms"`
}

// Stats counts categories and terms.
func (s *Service) Stats() Stats {
	store := s.cache.Snapshot()

	return Stats{Categories: len(store), Terms: store.TermCount()}
}

// Selection names one term.
type Selection struct {
	Category string `json:"category"`
	Name     string `json:"name"`
}

// CombineRequest asks for the translations of Selections as one prompt.
type CombineRequest struct {
	Selections []Selection `json:"selections"`
	AddPrefix  bool        `json:"addPrefix"`
	Prefix     string      `json:"prefix"`
}

// CombineResult is the assembled prompt.
type CombineResult struct {
	Text     string `json:"combinedText"`
	Selected int    `json:"selectedCount"`
	Prefixed bool   `json:"addPrefix"`
}

// Combine joins the translations of the selected terms with ", " in
// selection order. Selections that match nothing are skipped. With AddPrefix
// the prefix (defaultPrefix when empty) and a space go in front, unless
// nothing matched.
func (s *Service) Combine(req CombineRequest, defaultPrefix string) (CombineResult, error) {
	if len(req.Selections) == 0 {
		return CombineResult{}, ErrNoSelection
	}

	store := s.cache.Snapshot()
	translations := make([]string, 0, len(req.Selections))

	for _, sel := range req.Selections {
		terms, ok := store.Get(strings.TrimSpace(sel.Category))
		if !ok {
			continue
		}

		c := glossary.Category{Terms: terms}
		if i := c.Find(strings.TrimSpace(sel.Name)); i >= 0 {
			translations = append(translations, terms[i].Translation)
		}
	}

	text := strings.Join(translations, ", ")

	if req.AddPrefix && text != "" {
		prefix := strings.TrimSpace(req.Prefix)
		if prefix == "" {
			prefix = defaultPrefix
		}

		text = prefix + " " + text
	}

	return CombineResult{Text: text, Selected: len(translations), Prefixed: req.AddPrefix}, nil
}
