// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	now := time.Now()

	if strings.ReplaceAll(now.Format("15:04:05"), ":", "") != maketime(now) {
		t.Error("time part incorrect")
	}

	assert.Len(t, Make(), 10)
}

func TestStamp(t *testing.T) {
	t.Parallel()

	a := time.Date(2025, 3, 1, 10, 4, 5, 123456789, time.UTC)
	b := a.Add(time.Nanosecond)

	assert.Equal(t, "20250301T100405.123456789", Stamp(a))
	assert.Less(t, Stamp(a), Stamp(b))
	assert.NotContains(t, Stamp(a), "/")

	parsed, err := ParseStamp(Stamp(b))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(b))
}
