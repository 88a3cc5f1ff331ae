// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package document

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
	"github.com/self-exiler/NaiBotAssistant/core/idgen"
)

// BackupInfo describes one rotated document.
type BackupInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`

	// seq orders backups rotated within the same nanosecond.
	seq int
}

// Backups lists the backups of this document, newest first.
func (d *Document) Backups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(d.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return []BackupInfo{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	out := []BackupInfo{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		created, seq, ok := d.parseBackupName(entry.Name())
		if !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		out = append(out, BackupInfo{Name: entry.Name(), Size: info.Size(), Created: created, seq: seq})
	}

	slices.SortFunc(out, func(a, b BackupInfo) int {
		if c := b.Created.Compare(a.Created); c != 0 {
			return c
		}

		return cmp.Compare(b.seq, a.seq)
	})

	return out, nil
}

// OpenBackup opens a backup by the name reported by Backups.
func (d *Document) OpenBackup(name string) (io.ReadSeekCloser, BackupInfo, error) {
	created, _, ok := d.parseBackupName(name)
	if !ok || name != filepath.Base(name) {
		return nil, BackupInfo{}, fmt.Errorf("%w: %q", ErrInvalidBackupName, name)
	}

	f, err := os.Open(filepath.Join(d.backupDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, BackupInfo{}, fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}

	if err != nil {
		return nil, BackupInfo{}, err
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, BackupInfo{}, err
	}

	return f, BackupInfo{Name: name, Size: stat.Size(), Created: created}, nil
}

// ReadBackup decodes a backup. Unlike Read it never quarantines anything.
func (d *Document) ReadBackup(name string) (glossary.Store, error) {
	f, _, err := d.OpenBackup(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	store, err := glossary.Decode(f)
	if err != nil {
		return nil, &CorruptError{Path: filepath.Join(d.backupDir, name), Err: err}
	}

	return store, nil
}

// Prune removes all but the keep newest backups and returns the names it
// removed. keep < 0 keeps everything.
func (d *Document) Prune(keep int) ([]string, error) {
	if keep < 0 {
		return nil, nil
	}

	backups, err := d.Backups()
	if err != nil {
		return nil, err
	}

	if len(backups) <= keep {
		return nil, nil
	}

	var (
		removed []string
		errs    []error
	)

	for _, b := range backups[keep:] {
		if err := os.Remove(filepath.Join(d.backupDir, b.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)

			continue
		}

		removed = append(removed, b.Name)
	}

	backupsPrunedTotal.Add(float64(len(removed)))

	return removed, errors.Join(errs...)
}

// parseBackupName accepts "<stem>_<stamp><ext>" and "<stem>_<stamp>-N<ext>",
// returning the stamp and N (0 without suffix).
func (d *Document) parseBackupName(name string) (time.Time, int, bool) {
	rest, ok := strings.CutPrefix(name, d.stem+"_")
	if !ok {
		return time.Time{}, 0, false
	}

	rest, ok = strings.CutSuffix(rest, d.ext)
	if !ok {
		return time.Time{}, 0, false
	}

	seq := 0

	if stamp, suffix, found := strings.Cut(rest, "-"); found {
		n, err := strconv.Atoi(suffix)
		if err != nil || n < 1 {
			return time.Time{}, 0, false
		}

		rest, seq = stamp, n
	}

	created, err := idgen.ParseStamp(rest)
	if err != nil {
		return time.Time{}, 0, false
	}

	return created, seq, true
}
