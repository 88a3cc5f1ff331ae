// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package document

import (
	"errors"
	"os"
	"time"
)

// Status describes the files behind a Document.
type Status struct {
	Path       string     `json:"path"`
	Exists     bool       `json:"exists"`
	Size       int64      `json:"size"`
	Modified   *time.Time `json:"lastWrite"`
	BackupDir  string     `json:"backupDir"`
	Backups    int        `json:"backupCount"`
	LastBackup *time.Time `json:"lastBackup"`
	Mirrored   bool       `json:"mirrored"`
}

// Status reports the primary document and its backups. A document that was
// never written reports Exists false and no last write.
func (d *Document) Status() (Status, error) {
	st := Status{
		Path:      d.path,
		BackupDir: d.backupDir,
		Mirrored:  d.mirror != nil,
	}

	info, err := os.Stat(d.path)

	switch {
	case err == nil:
		modified := info.ModTime().UTC()
		st.Exists = true
		st.Size = info.Size()
		st.Modified = &modified
	case !errors.Is(err, os.ErrNotExist):
		return st, err
	}

	backups, err := d.Backups()
	if err != nil {
		return st, err
	}

	st.Backups = len(backups)
	if len(backups) > 0 {
		created := backups[0].Created.UTC()
		st.LastBackup = &created
	}

	return st, nil
}
