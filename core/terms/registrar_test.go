// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

func TestUpsert(t *testing.T) {
	t.Parallel()

	svc, backend := newService(t, glossary.Store{
		{Key: "b", Terms: []glossary.Term{term("x", "old", "")}},
	})
	ctx := context.Background()

	created, err := svc.Upsert(ctx, Entry{Category: " b ", Name: " x ", Translation: "new", Note: "n"})
	require.NoError(t, err)
	assert.False(t, created)

	created, err = svc.Upsert(ctx, Entry{Category: "a", Name: "y", Translation: "why"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Upsert(ctx, Entry{Category: "b", Name: "a", Translation: "ay"})
	require.NoError(t, err)
	assert.True(t, created)

	want := glossary.Store{
		{Key: "a", Terms: []glossary.Term{term("y", "why", "")}},
		{Key: "b", Terms: []glossary.Term{term("a", "ay", ""), term("x", "new", "n")}},
	}
	assert.Equal(t, want, svc.Snapshot())
	assert.Equal(t, want, backend.stored)
}

func TestUpsertOnlyChecksTargetCategory(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, glossary.Store{
		{Key: "a", Terms: []glossary.Term{term("x", "", "")}},
	})

	created, err := svc.Upsert(context.Background(), Entry{Category: "b", Name: "x", Translation: "t"})
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, map[string][]string{"a": {"x"}, "b": {"x"}}, names(svc.Snapshot()))
}

func TestUpsertValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, glossary.Store{})

	_, err := svc.Upsert(context.Background(), Entry{
		Category:    strings.Repeat("类", 21),
		Name:        "  ",
		Translation: "t",
		Note:        strings.Repeat("注", 200),
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string][]string{
		"category": {"must be at most 20 characters"},
		"name":     {"must not be empty"},
	}, verr.Fields)
	assert.Empty(t, svc.Snapshot())
}

func TestConcurrentUpsertsAreNotLost(t *testing.T) {
	t.Parallel()

	svc, backend := newService(t, glossary.Store{})

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Go(func() {
			_, err := svc.Upsert(context.Background(), Entry{
				Category:    fmt.Sprintf("c%d", i%4),
				Name:        fmt.Sprintf("n%02d", i),
				Translation: "t",
			})
			assert.NoError(t, err)
		})
	}

	wg.Wait()

	assert.Equal(t, 20, svc.Snapshot().TermCount())
	assert.Equal(t, 20, backend.stored.TermCount())
}

func TestDeleteTerm(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t, glossary.Store{
		{Key: "a", Terms: []glossary.Term{term("x", "", "")}},
		{Key: "b", Terms: []glossary.Term{term("y", "", ""), term("z", "", "")}},
	})
	ctx := context.Background()

	require.NoError(t, svc.DeleteTerm(ctx, "b", "y"))
	require.NoError(t, svc.DeleteTerm(ctx, "a", " x "))

	assert.Equal(t, map[string][]string{"b": {"z"}}, names(svc.Snapshot()))

	require.ErrorIs(t, svc.DeleteTerm(ctx, "a", "x"), ErrNotFound)
	require.ErrorIs(t, svc.DeleteTerm(ctx, "b", "missing"), ErrNotFound)
	require.ErrorIs(t, svc.DeleteTerm(ctx, "", "x"), ErrEmptyCategory)
	require.ErrorIs(t, svc.DeleteTerm(ctx, "b", " "), ErrEmptyName)
}

func TestEntryValidateCountsCharacters(t *testing.T) {
	t.Parallel()

	e := Entry{
		Category:    strings.Repeat("类", 20),
		Name:        strings.Repeat("名", 50),
		Translation: strings.Repeat("译", 100),
		Note:        strings.Repeat("注", 200),
	}
	require.NoError(t, e.Validate())

	e.Note += "!"

	var verr *ValidationError
	require.ErrorAs(t, e.Validate(), &verr)
	assert.Equal(t, []string{"must be at most 200 characters"}, verr.Fields["note"])
}

func TestDeleteTerms(t *testing.T) {
	t.Parallel()

	svc, backend := newService(t, glossary.Store{
		{Key: "a", Terms: []glossary.Term{term("x", "", ""), term("y", "", "")}},
		{Key: "b", Terms: []glossary.Term{term("z", "", "")}},
	})
	ctx := context.Background()

	deleted, err := svc.DeleteTerms(ctx, []Selection{
		{Category: " a ", Name: "x "},
		{Category: "b", Name: "z"},
		{Category: "b", Name: "z"},
		{Category: "c", Name: "x"},
		{Category: "a", Name: " "},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	want := map[string][]string{"a": {"y"}}
	assert.Equal(t, want, names(svc.Snapshot()))
	assert.Equal(t, want, names(backend.stored))

	_, err = svc.DeleteTerms(ctx, nil)
	require.ErrorIs(t, err, ErrNoSelection)
}

func TestDeleteTermsWithoutMatchesDoesNotWrite(t *testing.T) {
	t.Parallel()

	svc, backend := newService(t, glossary.Store{
		{Key: "a", Terms: []glossary.Term{term("x", "", "")}},
	})
	backend.writeErr = errors.New("disk full")

	deleted, err := svc.DeleteTerms(context.Background(), []Selection{{Category: "a", Name: "nope"}})
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Equal(t, map[string][]string{"a": {"x"}}, names(svc.Snapshot()))
}
