// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package document

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	d, _ := newTestDocument(t, nil)

	st, err := d.Status()
	require.NoError(t, err)
	assert.Equal(t, d.Path(), st.Path)
	assert.False(t, st.Exists)
	assert.Nil(t, st.Modified)
	assert.Zero(t, st.Backups)
	assert.Nil(t, st.LastBackup)
	assert.False(t, st.Mirrored)

	require.NoError(t, d.Write(sampleStore()))
	require.NoError(t, d.Write(sampleStore()))
	require.NoError(t, d.Write(sampleStore()))

	info, err := os.Stat(d.Path())
	require.NoError(t, err)

	st, err = d.Status()
	require.NoError(t, err)
	assert.True(t, st.Exists)
	assert.Equal(t, info.Size(), st.Size)
	require.NotNil(t, st.Modified)
	assert.WithinDuration(t, info.ModTime(), *st.Modified, time.Second)
	assert.Equal(t, 2, st.Backups)

	backups, err := d.Backups()
	require.NoError(t, err)
	require.NotNil(t, st.LastBackup)
	assert.True(t, backups[0].Created.Equal(*st.LastBackup))
}
