// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

func queryStore() glossary.Store {
	return glossary.Store{
		{Key: "animals", Terms: []glossary.Term{term("cat", "Cat", "pet"), term("dog", "Dog", "")}},
		{Key: "colors", Terms: []glossary.Term{term("blue", "Blue", "sky"), term("red", "Red", "like a CAT's tongue")}},
	}
}

func TestCategoriesAndStats(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, queryStore())

	assert.Equal(t, []CategoryInfo{{Key: "animals", Count: 2}, {Key: "colors", Count: 2}}, svc.Categories())
	assert.Equal(t, Stats{Categories: 2, Terms: 4}, svc.Stats())

	terms, err := svc.Terms("colors")
	require.NoError(t, err)
	assert.Len(t, terms, 2)

	_, err = svc.Terms("missing")
	require.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, svc.Entries(""), 4)
	assert.Equal(t, []Entry{
		{Category: "animals", Name: "cat", Translation: "Cat", Note: "pet"},
		{Category: "animals", Name: "dog", Translation: "Dog"},
	}, svc.Entries("animals"))
	assert.Empty(t, svc.Entries("missing"))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, queryStore())

	tests := []struct {
		name      string
		query     SearchQuery
		wantNames []string
		wantPage  Pagination
	}{
		{
			name:      "matches any field ignoring case",
			query:     SearchQuery{Keyword: "cat"},
			wantNames: []string{"cat", "red"},
			wantPage:  Pagination{Page: 1, Limit: DefaultLimit, Total: 2, Pages: 1},
		},
		{
			name:      "restricted to a category",
			query:     SearchQuery{Keyword: "cat", Category: "colors"},
			wantNames: []string{"red"},
			wantPage:  Pagination{Page: 1, Limit: DefaultLimit, Total: 1, Pages: 1},
		},
		{
			name:      "second page",
			query:     SearchQuery{Keyword: "e", Page: 2, Limit: 2},
			wantNames: []string{"red"},
			wantPage:  Pagination{Page: 2, Limit: 2, Total: 3, Pages: 2},
		},
		{
			name:      "past the end",
			query:     SearchQuery{Keyword: "e", Page: 9, Limit: 2},
			wantNames: []string{},
			wantPage:  Pagination{Page: 9, Limit: 2, Total: 3, Pages: 2},
		},
		{
			name:      "page number far past the end",
			query:     SearchQuery{Keyword: "cat", Page: math.MaxInt, Limit: 100},
			wantNames: []string{},
			wantPage:  Pagination{Page: math.MaxInt, Limit: 100, Total: 2, Pages: 1},
		},
		{
			name:      "huge limit",
			query:     SearchQuery{Keyword: "e", Page: 2, Limit: math.MaxInt},
			wantNames: []string{},
			wantPage:  Pagination{Page: 2, Limit: math.MaxInt, Total: 3, Pages: 1},
		},
		{
			name:      "no match",
			query:     SearchQuery{Keyword: "zebra"},
			wantNames: []string{},
			wantPage:  Pagination{Page: 1, Limit: DefaultLimit},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := svc.Search(tt.query)
			require.NoError(t, err)

			gotNames := []string{}
			for _, e := range got.Entries {
				gotNames = append(gotNames, e.Name)
			}

			assert.Equal(t, tt.wantNames, gotNames)
			assert.Equal(t, tt.wantPage, got.Pagination)
		})
	}

	_, err := svc.Search(SearchQuery{Keyword: "  "})
	require.ErrorIs(t, err, ErrEmptyKeyword)
}

func TestCombine(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, queryStore())

	got, err := svc.Combine(CombineRequest{
		Selections: []Selection{
			{Category: "colors", Name: "red"},
			{Category: "animals", Name: "cat"},
			{Category: "animals", Name: "missing"},
		},
	}, "Nai")
	require.NoError(t, err)
	assert.Equal(t, CombineResult{Text: "Red, Cat", Selected: 2}, got)

	got, err = svc.Combine(CombineRequest{
		Selections: []Selection{{Category: "animals", Name: "dog"}},
		AddPrefix:  true,
	}, "Nai")
	require.NoError(t, err)
	assert.Equal(t, "Nai Dog", got.Text)

	got, err = svc.Combine(CombineRequest{
		Selections: []Selection{{Category: "animals", Name: "dog"}},
		AddPrefix:  true,
		Prefix:     "masterpiece,",
	}, "Nai")
	require.NoError(t, err)
	assert.Equal(t, "masterpiece, Dog", got.Text)

	got, err = svc.Combine(CombineRequest{
		Selections: []Selection{{Category: "nope", Name: "dog"}},
		AddPrefix:  true,
	}, "Nai")
	require.NoError(t, err)
	assert.Empty(t, got.Text)

	_, err = svc.Combine(CombineRequest{}, "Nai")
	require.ErrorIs(t, err, ErrNoSelection)
}

func TestExport(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, glossary.Store{
		{Key: "b", Terms: []glossary.Term{term("x", "<x>", "")}},
		{Key: "a", Terms: []glossary.Term{term("y", "why", "n")}},
	})

	var buf bytes.Buffer

	require.NoError(t, svc.Export(&buf, FormatJSON, ""))
	assert.Less(t, strings.Index(buf.String(), `"b"`), strings.Index(buf.String(), `"a"`), "store order is kept")
	assert.Contains(t, buf.String(), `"<x>"`)

	buf.Reset()
	require.NoError(t, svc.Export(&buf, FormatYAML, ""))

	var doc yaml.MapSlice
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc, 2)
	assert.Equal(t, "b", doc[0].Key)
	assert.Equal(t, "a", doc[1].Key)
	assert.Contains(t, buf.String(), "translation: why")

	buf.Reset()
	require.NoError(t, svc.Export(&buf, FormatCSV, "a"))
	assert.Equal(t, "\ufeff分类,名称,译文,注释\na,y,why,n\n", buf.String())

	require.ErrorIs(t, svc.Export(&buf, Format("xml"), ""), ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"json": FormatJSON, "YAML": FormatYAML, "yml": FormatYAML, " csv ": FormatCSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRestore(t *testing.T) {
	t.Parallel()

	svc, backend := newService(t, queryStore())
	backend.backups = map[string]glossary.Store{
		"data_1.json": {
			{Key: "z", Terms: []glossary.Term{term("b", "", ""), term("a", "", "")}},
			{Key: "y", Terms: []glossary.Term{}},
		},
	}

	stats, err := svc.Restore(context.Background(), backend, "data_1.json")
	require.NoError(t, err)
	assert.Equal(t, Stats{Categories: 1, Terms: 2}, stats)
	assert.Equal(t, map[string][]string{"z": {"a", "b"}}, names(svc.Snapshot()))

	_, err = svc.Restore(context.Background(), backend, "missing.json")
	require.Error(t, err)
	assert.Equal(t, 1, svc.Stats().Categories)
}
