// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package document persists the glossary as a single JSON document.

Every write first moves the previous document into a backup directory under
a nanosecond-stamped name, then moves the new document into place. A
document that cannot be decoded is moved aside into a quarantine directory
and reading continues with an empty glossary.
*/
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
	"github.com/self-exiler/NaiBotAssistant/core/idgen"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644

	defaultExt       = ".json"
	quarantineInfix  = ".corrupt-"
	maxNameCollision = 1000
	indent           = "    "
)

// Mirror receives a copy of every rotated backup. Upload is called from its
// own goroutine and must honour ctx.
type Mirror interface {
	Upload(ctx context.Context, name string, data []byte) error
}

// Options configures a Document.
type Options struct {
	// Path of the primary document.
	Path string
	// BackupDir receives the previous document on every write.
	BackupDir string
	// QuarantineDir receives undecodable documents. Defaults to the
	// directory of Path.
	QuarantineDir string

	// Mirror, if set, gets every rotated backup.
	Mirror        Mirror
	MirrorTimeout time.Duration

	// Now is used for backup and quarantine stamps. Defaults to time.Now.
	Now func() time.Time
}

// Document is the durable copy of the glossary. It is not safe for
// concurrent writers; callers serialize Write.
type Document struct {
	path          string
	backupDir     string
	quarantineDir string
	stem          string
	ext           string

	mirror        Mirror
	mirrorTimeout time.Duration
	uploads       sync.WaitGroup

	now func() time.Time
}

// New returns a Document for opts. Nothing is touched on disk until the
// first Read or Write.
func New(opts Options) *Document {
	base := filepath.Base(opts.Path)

	ext := filepath.Ext(base)
	if ext == "" {
		ext = defaultExt
	}

	d := &Document{
		path:          opts.Path,
		backupDir:     opts.BackupDir,
		quarantineDir: opts.QuarantineDir,
		stem:          strings.TrimSuffix(base, filepath.Ext(base)),
		ext:           ext,
		mirror:        opts.Mirror,
		mirrorTimeout: opts.MirrorTimeout,
		now:           opts.Now,
	}

	if d.quarantineDir == "" {
		d.quarantineDir = filepath.Dir(opts.Path)
	}

	if d.now == nil {
		d.now = time.Now
	}

	return d
}

// Path returns the location of the primary document.
func (d *Document) Path() string {
	return d.path
}

// Read loads the glossary.
//
// A missing document yields an empty store and no error. A document that
// cannot be decoded is quarantined; Read then returns an empty store together
// with a *CorruptError. Any other failure to read the file is returned as is
// and leaves the file alone. The returned store is usable in every case.
func (d *Document) Read() (glossary.Store, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return glossary.Store{}, nil
	}

	if err != nil {
		return glossary.Store{}, fmt.Errorf("read %s: %w", d.path, err)
	}

	store, err := glossary.Decode(bytes.NewReader(data))
	if err == nil {
		return store, nil
	}

	corrupt := &CorruptError{Path: d.path, Err: err}

	target, qerr := d.quarantine(data)
	if qerr != nil {
		corrupt.Err = errors.Join(err, qerr)
	}

	corrupt.QuarantinePath = target
	quarantinesTotal.Inc()

	return glossary.Store{}, corrupt
}

// Write replaces the document with store.
//
// The new content is written to a temporary file first. The previous
// document is then moved into the backup directory and the temporary file
// renamed into place, so at every point either the primary or its backup
// holds the last good data.
//
// A failed backup does not stop the write; the result is then a
// *BackupError and the new data is durable. Any other error means the new
// data was not written.
func (d *Document) Write(store glossary.Store) error {
	start := time.Now()

	err := d.write(store)

	writeDuration.Observe(time.Since(start).Seconds())

	var backupErr *BackupError

	switch {
	case err == nil:
		writesTotal.WithLabelValues("ok").Inc()
	case errors.As(err, &backupErr):
		writesTotal.WithLabelValues("ok").Inc()
		backupFailuresTotal.Inc()
	default:
		writesTotal.WithLabelValues("error").Inc()
	}

	return err
}

func (d *Document) write(store glossary.Store) error {
	data, err := Encode(store)
	if err != nil {
		return fmt.Errorf("encode glossary: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("create document directory: %w", err)
	}

	tmpPath, err := writeTemp(dir, "."+d.stem+".tmp-*", data)
	if err != nil {
		return err
	}

	backupPath, backupErr := d.rotate()

	if err := os.Rename(tmpPath, d.path); err != nil {
		_ = os.Remove(tmpPath)

		// Put the previous document back where readers expect it.
		if backupPath != "" {
			if rerr := os.Rename(backupPath, d.path); rerr != nil {
				log.Error().
					Err(rerr).
					Str("backup", backupPath).
					Msg("Failed to restore previous document after failed write; it remains in the backup directory")
			}
		}

		return fmt.Errorf("replace document: %w", err)
	}

	if backupPath != "" {
		d.mirrorBackup(backupPath)
	}

	if backupErr != nil {
		return backupErr
	}

	return nil
}

// rotate moves the current document into the backup directory. It returns
// the backup path, or "" if there was nothing to rotate or rotation failed.
func (d *Document) rotate() (string, error) {
	if _, err := os.Stat(d.path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err := os.MkdirAll(d.backupDir, dirPermissions); err != nil {
		return "", &BackupError{Path: d.path, Err: err}
	}

	target, err := freeName(d.backupDir, d.stem+"_"+idgen.Stamp(d.now()), d.ext)
	if err != nil {
		return "", &BackupError{Path: d.path, Err: err}
	}

	if err := os.Rename(d.path, target); err != nil {
		return "", &BackupError{Path: d.path, Backup: target, Err: err}
	}

	log.Debug().
		Str("backup", target).
		Msg("Rotated document into backup directory")

	return target, nil
}

// quarantine moves the primary document aside. data is the content read
// before decoding failed, used when the file cannot be renamed.
func (d *Document) quarantine(data []byte) (string, error) {
	if err := os.MkdirAll(d.quarantineDir, dirPermissions); err != nil {
		return "", err
	}

	target, err := freeName(d.quarantineDir, d.stem+d.ext+quarantineInfix+idgen.Stamp(d.now()), "")
	if err != nil {
		return "", err
	}

	if err := os.Rename(d.path, target); err == nil {
		log.Warn().
			Str("path", d.path).
			Str("quarantine", target).
			Msg("Quarantined unreadable document")

		return target, nil
	}

	// Renaming across devices fails; fall back to copy and remove.
	if err := os.WriteFile(target, data, filePermissions); err != nil {
		return "", fmt.Errorf("copy document to quarantine: %w", err)
	}

	if err := os.Remove(d.path); err != nil {
		return target, fmt.Errorf("remove quarantined document: %w", err)
	}

	return target, nil
}

func (d *Document) mirrorBackup(backupPath string) {
	if d.mirror == nil {
		return
	}

	data, err := os.ReadFile(backupPath) // #nosec G304 -- path built from the backup directory
	if err != nil {
		log.Warn().Err(err).Str("backup", backupPath).Msg("Failed to read backup for mirroring")

		return
	}

	name := filepath.Base(backupPath)

	d.uploads.Go(func() {
		ctx := context.Background()

		if d.mirrorTimeout > 0 {
			var cancel context.CancelFunc

			ctx, cancel = context.WithTimeout(ctx, d.mirrorTimeout)
			defer cancel()
		}

		if err := d.mirror.Upload(ctx, name, data); err != nil {
			mirrorUploadsTotal.WithLabelValues("error").Inc()
			log.Warn().Err(err).Str("backup", name).Msg("Failed to mirror backup")

			return
		}

		mirrorUploadsTotal.WithLabelValues("ok").Inc()
	})
}

// Close waits for pending mirror uploads.
func (d *Document) Close() error {
	d.uploads.Wait()

	return nil
}

// Encode serializes store the way it is stored on disk: UTF-8, four-space
// indentation, keys in store order.
func Encode(store glossary.Store) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	if err := enc.Encode(store); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func writeTemp(dir, pattern string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temporary document: %w", err)
	}

	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("write temporary document: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}

	if err := tmp.Sync(); err != nil {
		return fail(err)
	}

	if err := tmp.Chmod(filePermissions); err != nil {
		return fail(err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return "", fmt.Errorf("close temporary document: %w", err)
	}

	return tmp.Name(), nil
}

// freeName returns dir/name+ext, or dir/name-N+ext for the smallest N that
// does not exist yet.
func freeName(dir, name, ext string) (string, error) {
	candidate := filepath.Join(dir, name+ext)

	for n := 1; n <= maxNameCollision; n++ {
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}

		candidate = filepath.Join(dir, name+"-"+strconv.Itoa(n)+ext)
	}

	return "", fmt.Errorf("%w: %s", errNameExhausted, filepath.Join(dir, name+ext))
}
