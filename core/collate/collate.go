// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package collate produces sort keys for category keys and term names.

A Provider maps a string to a Key; sorting by Key yields the ordering users
expect for the glossary's language (pinyin order for Chinese) instead of raw
code point order. Sort and SafeSort apply a Provider to whole slices and make
the code point fallback explicit.
*/
package collate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrUnmappable is returned by a Provider that has no reading for a rune.
	ErrUnmappable = errors.New("no collation reading for character")

	// ErrSortPanicked is returned by SafeSort when the provider panicked.
	ErrSortPanicked = errors.New("collation provider panicked")

	errUnknownMode = errors.New("unknown collation mode")
)

// Key is a sequence of tokens compared lexicographically.
type Key []string

// Compare returns -1, 0 or +1 depending on whether k sorts before, equal to
// or after other.
func (k Key) Compare(other Key) int {
	return slices.Compare(k, other)
}

// String joins the tokens with spaces, for logs and tests.
func (k Key) String() string {
	return strings.Join(k, " ")
}

// Provider produces collation keys. Implementations must be deterministic
// and safe for concurrent use.
type Provider interface {
	Key(text string) (Key, error)
}

// Mode names a Provider implementation.
type Mode string

// Available modes.
const (
	ModePinyin    Mode = "pinyin"
	ModeLocale    Mode = "locale"
	ModeCodepoint Mode = "codepoint"
)

// New returns the Provider for mode. locale is only used by ModeLocale.
func New(mode Mode, locale string) (Provider, error) {
	switch mode {
	case ModePinyin, "":
		return NewPinyin(), nil
	case ModeLocale:
		return NewLocale(locale)
	case ModeCodepoint:
		return Codepoint{}, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownMode, mode)
	}
}

// Codepoint orders by raw code point. It never fails.
type Codepoint struct{}

// Key implements Provider.
func (Codepoint) Key(text string) (Key, error) {
	return Key{text}, nil
}

// KeyError reports the input a Provider could not map. Sort returns it after
// falling back to code point order.
type KeyError struct {
	Text string
	Err  error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("collation key for %q: %v", e.Text, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// Sort orders items by the key p assigns to text(item). Items with equal keys
// are ordered by their raw text, so the result is a total order.
//
// Keys are computed for every item before anything moves. If any of them
// fails, the whole slice is sorted by code point instead and a *KeyError for
// the first failure is returned; the slice is sorted in both cases.
func Sort[T any](p Provider, items []T, text func(T) string) error {
	type keyed struct {
		key  Key
		text string
		item T
	}

	entries := make([]keyed, len(items))

	var keyErr error

	for i, item := range items {
		s := text(item)
		entries[i] = keyed{text: s, item: item}

		if keyErr != nil {
			continue
		}

		k, err := p.Key(s)
		if err != nil {
			keyErr = &KeyError{Text: s, Err: err}

			continue
		}

		entries[i].key = k
	}

	slices.SortStableFunc(entries, func(a, b keyed) int {
		if keyErr == nil {
			if c := a.key.Compare(b.key); c != 0 {
				return c
			}
		}

		return strings.Compare(a.text, b.text)
	})

	for i := range entries {
		items[i] = entries[i].item
	}

	return keyErr
}

// SafeSort is Sort for callers that must not fail: a panic inside p is
// recovered and returned as ErrSortPanicked with items left in their input
// order. A *KeyError from Sort is returned as is, with items sorted by code
// point.
func SafeSort[T any](p Provider, items []T, text func(T) string) (err error) {
	sorted := slices.Clone(items)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSortPanicked, r)
		}
	}()

	err = Sort(p, sorted, text)
	copy(items, sorted)

	return err
}

// Strings sorts a slice of strings with p, see Sort.
func Strings(p Provider, s []string) error {
	return Sort(p, s, func(v string) string { return v })
}

// Less reports whether a sorts strictly before b under p, falling back to
// code point order if either key fails.
func Less(p Provider, a, b string) bool {
	ka, errA := p.Key(a)
	kb, errB := p.Key(b)

	if errA == nil && errB == nil {
		if c := ka.Compare(kb); c != 0 {
			return c < 0
		}
	}

	return a < b
}
