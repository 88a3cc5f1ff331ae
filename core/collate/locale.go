// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package collate

import (
	"fmt"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Locale keys strings with the CLDR collation of a language. The key is a
// single opaque token whose byte order is the collation order.
type Locale struct {
	tag language.Tag

	// collate.Collator and its buffer are not safe for concurrent use.
	mu       sync.Mutex
	collator *collate.Collator
	buf      collate.Buffer
}

// NewLocale parses tag as a BCP 47 language tag.
func NewLocale(tag string) (*Locale, error) {
	t, err := language.Parse(tag)
	if err != nil {
		return nil, fmt.Errorf("parse collation locale %q: %w", tag, err)
	}

	return &Locale{tag: t, collator: collate.New(t)}, nil
}

// Tag returns the language the provider collates for.
func (l *Locale) Tag() language.Tag {
	return l.tag
}

// Key implements Provider.
func (l *Locale) Key(text string) (Key, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := l.collator.KeyFromString(&l.buf, norm.NFC.String(text))
	key := Key{string(k)}

	l.buf.Reset()

	return key, nil
}
