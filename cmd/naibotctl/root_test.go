// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/self-exiler/NaiBotAssistant/core/document"
)

type workspace struct {
	dir       string
	dataFile  string
	backupDir string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()

	dir := t.TempDir()

	return workspace{
		dir:       dir,
		dataFile:  filepath.Join(dir, "data.json"),
		backupDir: filepath.Join(dir, "backups"),
	}
}

// run executes naibotctl with the workspace flags prepended and returns stdout.
func (ws workspace) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{
		"--config", filepath.Join(ws.dir, "missing.yaml"),
		"--data-file", ws.dataFile,
		"--backup-dir", ws.backupDir,
	}, args...))

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func TestAddAndExport(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "add", "-c", "角色", "-n", "猫娘", "-t", "catgirl")
	require.NoError(t, err)
	assert.Equal(t, "added 角色/猫娘\n", out)

	out, err = ws.run(t, "add", "-c", "角色", "-n", "猫娘", "-t", "cat girl")
	require.NoError(t, err)
	assert.Equal(t, "updated 角色/猫娘\n", out)

	out, err = ws.run(t, "export", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"cat girl"`)
	assert.NotContains(t, out, `"catgirl"`)

	out, err = ws.run(t, "export", "-f", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "角色,猫娘,cat girl,")
}

func TestAddRejectsInvalidEntry(t *testing.T) {
	ws := newWorkspace(t)

	_, err := ws.run(t, "add", "-c", "角色", "-n", "猫娘")
	require.Error(t, err)

	assert.NoFileExists(t, ws.dataFile)
}

func TestImportAndCheck(t *testing.T) {
	ws := newWorkspace(t)

	csvPath := filepath.Join(ws.dir, "in.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("分类,名称,译文,注释\n角色,猫娘,catgirl,\n场景,森林,forest,\n,空,x,\n"), 0o600))

	out, err := ws.run(t, "import", csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "imported 2, updated 0, skipped 1\n"), out)

	out, err = ws.run(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "2 categories, 2 terms")
}

func TestImportRejectsUnknownMode(t *testing.T) {
	ws := newWorkspace(t)

	_, err := ws.run(t, "import", "--mode", "merge", filepath.Join(ws.dir, "in.csv"))
	require.Error(t, err)
}

func TestCheckLeavesCorruptDocumentInPlace(t *testing.T) {
	ws := newWorkspace(t)

	require.NoError(t, os.WriteFile(ws.dataFile, []byte("{not json"), 0o600))

	_, err := ws.run(t, "check")
	require.ErrorIs(t, err, document.ErrCorrupt)

	assert.FileExists(t, ws.dataFile)
}

func TestBackups(t *testing.T) {
	ws := newWorkspace(t)

	_, err := ws.run(t, "add", "-c", "角色", "-n", "猫娘", "-t", "catgirl")
	require.NoError(t, err)

	// The second write rotates the first document into a backup.
	_, err = ws.run(t, "add", "-c", "角色", "-n", "精灵", "-t", "elf")
	require.NoError(t, err)

	out, err := ws.run(t, "backups", "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)

	name := strings.Fields(lines[0])[0]
	assert.True(t, strings.HasPrefix(name, "data_"), name)

	out, err = ws.run(t, "backups", "restore", name)
	require.NoError(t, err)
	assert.Equal(t, "restored "+name+": 1 categories, 1 terms\n", out)

	out, err = ws.run(t, "export", "-f", "csv")
	require.NoError(t, err)
	assert.NotContains(t, out, "精灵")

	// Restoring rotated the two-term document too.
	out, err = ws.run(t, "backups", "prune", "--keep", "0")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "removed "))

	out, err = ws.run(t, "backups", "list")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestDeleteAndStatus(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "last write   never")

	for _, name := range []string{"猫娘", "精灵", "龙"} {
		_, err = ws.run(t, "add", "-c", "角色", "-n", name, "-t", "x")
		require.NoError(t, err)
	}

	out, err = ws.run(t, "delete", "-c", "角色", "猫娘", "龙", "不存在")
	require.NoError(t, err)
	assert.Equal(t, "deleted 2 of 3\n", out)

	out, err = ws.run(t, "export", "-f", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "精灵")
	assert.NotContains(t, out, "猫娘")

	out, err = ws.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "backups      3 in "+ws.backupDir)
	assert.NotContains(t, out, "never")

	_, err = ws.run(t, "delete", "猫娘")
	require.Error(t, err)
}
