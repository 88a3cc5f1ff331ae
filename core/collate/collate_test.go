// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package collate

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failOn fails for one input and keys everything else by code point.
type failOn string

func (f failOn) Key(text string) (Key, error) {
	if text == string(f) {
		return nil, ErrUnmappable
	}

	return Key{text}, nil
}

// reversed inverts code point order so that a fallback is observable.
type reversed struct{ failOn string }

func (r reversed) Key(text string) (Key, error) {
	if text == r.failOn {
		return nil, ErrUnmappable
	}

	out := []rune(text)
	for i, c := range out {
		out[i] = 0x10FFFF - c
	}

	return Key{string(out)}, nil
}

type panicky struct{}

func (panicky) Key(string) (Key, error) { panic("boom") }

func TestPinyinKey(t *testing.T) {
	t.Parallel()

	p := NewPinyin()

	tests := []struct {
		in   string
		want Key
	}{
		{"猫", Key{"mao"}},
		{"苹果", Key{"ping", "guo"}},
		{"A猫b", Key{"A", "mao", "b"}},
		{"cat", Key{"cat"}},
		{"", Key{}},
	}

	for _, tt := range tests {
		got, err := p.Key(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPinyinOrder(t *testing.T) {
	t.Parallel()

	names := []string{"香蕉", "狗", "苹果", "ABC", "猫"}

	require.NoError(t, Strings(NewPinyin(), names))
	assert.Equal(t, []string{"ABC", "狗", "猫", "苹果", "香蕉"}, names)
}

func TestLocaleOrder(t *testing.T) {
	t.Parallel()

	en, err := NewLocale("en")
	require.NoError(t, err)

	words := []string{"f", "é", "e"}
	require.NoError(t, Strings(en, words))
	assert.Equal(t, []string{"e", "é", "f"}, words)

	words = []string{"f", "é", "e"}
	require.NoError(t, Strings(Codepoint{}, words))
	assert.Equal(t, []string{"e", "f", "é"}, words)

	_, err = NewLocale("not a tag!")
	require.Error(t, err)
}

func TestLocaleConcurrentUse(t *testing.T) {
	t.Parallel()

	en, err := NewLocale("en")
	require.NoError(t, err)

	want, err := en.Key("glossary")
	require.NoError(t, err)

	var wg sync.WaitGroup

	for range 8 {
		wg.Go(func() {
			for range 100 {
				got, err := en.Key("glossary")
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}

	wg.Wait()
}

func TestSortFallsBackUniformly(t *testing.T) {
	t.Parallel()

	// Under the provider this would be reverse order; one failure must
	// switch the whole sort to code point order.
	items := []string{"b", "bad", "a", "c"}

	err := Strings(reversed{failOn: "bad"}, items)

	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "bad", keyErr.Text)
	require.ErrorIs(t, err, ErrUnmappable)
	assert.Equal(t, []string{"a", "b", "bad", "c"}, items)

	items = []string{"b", "a", "c"}
	require.NoError(t, Strings(reversed{}, items))
	assert.Equal(t, []string{"c", "b", "a"}, items)
}

func TestSortTieBreaksOnText(t *testing.T) {
	t.Parallel()

	constant := providerFunc(func(string) (Key, error) { return Key{"same"}, nil })

	items := []string{"z", "x", "y"}
	require.NoError(t, Strings(constant, items))
	assert.Equal(t, []string{"x", "y", "z"}, items)
}

func TestSafeSort(t *testing.T) {
	t.Parallel()

	items := []string{"b", "a"}

	err := SafeSort(panicky{}, items, func(s string) string { return s })
	require.ErrorIs(t, err, ErrSortPanicked)
	assert.Equal(t, []string{"b", "a"}, items, "input order is kept")

	err = SafeSort(failOn("a"), items, func(s string) string { return s })
	require.ErrorIs(t, err, ErrUnmappable)
	assert.Equal(t, []string{"a", "b"}, items)
}

func TestNew(t *testing.T) {
	t.Parallel()

	p, err := New(ModePinyin, "")
	require.NoError(t, err)
	assert.IsType(t, &Pinyin{}, p)

	p, err = New(ModeLocale, "de")
	require.NoError(t, err)
	assert.IsType(t, &Locale{}, p)

	p, err = New(ModeCodepoint, "")
	require.NoError(t, err)
	assert.Equal(t, Codepoint{}, p)

	_, err = New("soundex", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnmappable))
}

func TestLess(t *testing.T) {
	t.Parallel()

	assert.True(t, Less(NewPinyin(), "狗", "猫"))
	assert.False(t, Less(NewPinyin(), "猫", "狗"))
	assert.True(t, Less(failOn("b"), "a", "b"))
}

type providerFunc func(string) (Key, error)

func (f providerFunc) Key(s string) (Key, error) { return f(s) }
