// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package document

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt matches a *CorruptError.
	ErrCorrupt = errors.New("document is corrupt")

	// ErrBackup matches a *BackupError.
	ErrBackup = errors.New("backup failed")

	// ErrInvalidBackupName is returned for names that are not backups of this document.
	ErrInvalidBackupName = errors.New("invalid backup name")

	// ErrBackupNotFound is returned when a named backup does not exist.
	ErrBackupNotFound = errors.New("backup not found")

	errNameExhausted = errors.New("no free file name")
)

// CorruptError reports a document that could not be read or decoded. It is
// informational: Read has already recovered with an empty store.
type CorruptError struct {
	Path           string
	QuarantinePath string
	Err            error
}

func (e *CorruptError) Error() string {
	if e.QuarantinePath == "" {
		return fmt.Sprintf("document %s is corrupt and could not be quarantined: %v", e.Path, e.Err)
	}

	return fmt.Sprintf("document %s is corrupt, moved to %s: %v", e.Path, e.QuarantinePath, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }

// BackupError reports that the previous document could not be rotated. The
// write that returned it still succeeded.
type BackupError struct {
	Path   string
	Backup string
	Err    error
}

func (e *BackupError) Error() string {
	if e.Backup == "" {
		return fmt.Sprintf("backup of %s failed: %v", e.Path, e.Err)
	}

	return fmt.Sprintf("backup of %s to %s failed: %v", e.Path, e.Backup, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

func (e *BackupError) Is(target error) bool { return target == ErrBackup }
