// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package collate

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/unicode/norm"
)

// Pinyin keys Han characters by their toneless pinyin reading, one token per
// character. Runs of other characters become a single token holding the run
// unchanged, so "A猫" keys as ["A", "mao"].
type Pinyin struct {
	args pinyin.Args
}

// NewPinyin returns a Pinyin provider using the most common reading of each
// character.
func NewPinyin() *Pinyin {
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal
	args.Heteronym = false
	args.Fallback = func(rune, pinyin.Args) []string { return nil }

	return &Pinyin{args: args}
}

// Key implements Provider.
func (p *Pinyin) Key(text string) (Key, error) {
	text = norm.NFC.String(text)

	key := Key{}

	var run strings.Builder

	flush := func() {
		if run.Len() > 0 {
			key = append(key, run.String())
			run.Reset()
		}
	}

	for _, r := range text {
		if !unicode.Is(unicode.Han, r) {
			run.WriteRune(r)

			continue
		}

		flush()

		readings := pinyin.SinglePinyin(r, p.args)
		if len(readings) == 0 || readings[0] == "" {
			return nil, &KeyError{Text: string(r), Err: ErrUnmappable}
		}

		key = append(key, readings[0])
	}

	flush()

	return key, nil
}
