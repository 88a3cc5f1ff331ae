// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/self-exiler/NaiBotAssistant/core/glossary"
)

// ImportMode selects how ImportCSV treats the existing store.
type ImportMode string

const (
	// ImportIncrement upserts every row into the existing store.
	ImportIncrement ImportMode = "increment"
	// ImportReplace discards the existing store and keeps only the rows.
	ImportReplace ImportMode = "replace"
)

// ParseImportMode accepts "increment" or "replace"; empty means increment.
func ParseImportMode(s string) (ImportMode, error) {
	switch ImportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ImportIncrement:
		return ImportIncrement, nil
	case ImportReplace:
		return ImportReplace, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidImportMode, s)
	}
}

// ErrCSVHeader is returned when a required column is missing.
var ErrCSVHeader = errors.New("csv header must name the category, name and translation columns")

// maxReportedRowErrors caps ImportResult.Errors.
const maxReportedRowErrors = 10

var csvHeader = []string{"分类", "名称", "译文", "注释"}

const utf8BOM = "\ufeff"

// column aliases accepted on import, by position in csvHeader.
var csvAliases = [][]string{
	{"分类", "category"},
	{"名称", "name"},
	{"译文", "translation"},
	{"注释", "note", "comment"},
}

// ExportCSV writes the entries of one category, or of the whole store when
// category is empty, with a UTF-8 byte order mark so spreadsheet software
// picks the right encoding.
func (s *Service) ExportCSV(w io.Writer, category string) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, e := range s.Entries(category) {
		if err := cw.Write([]string{e.Category, e.Name, e.Translation, e.Note}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// ImportResult counts what ImportCSV did. Errors holds the first few row
// problems.
type ImportResult struct {
	Imported int      `json:"importedCount"`
	Updated  int      `json:"updatedCount"`
	Skipped  int      `json:"skippedCount"`
	Errors   []string `json:"errors"`
}

func (r *ImportResult) skip(line int, err error) {
	r.Skipped++

	if len(r.Errors) < maxReportedRowErrors {
		r.Errors = append(r.Errors, fmt.Sprintf("line %d: %v", line, err))
	}
}

// ImportCSV reads entries from r and applies them in one store update.
// Rows failing validation are skipped and reported. A malformed file or
// header aborts before anything is changed. source names the upload in the
// history and may be empty.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, mode ImportMode, source string) (ImportResult, error) {
	result := ImportResult{Errors: []string{}}

	if mode != ImportIncrement && mode != ImportReplace {
		return result, fmt.Errorf("%w: %q", ErrInvalidImportMode, mode)
	}

	entries, err := readCSV(r, &result)
	if err != nil {
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	apply := func(store *glossary.Store) error {
		if mode == ImportReplace {
			*store = glossary.Store{}
		}

		for _, e := range entries {
			if upsert(store, e) {
				result.Imported++
			} else {
				result.Updated++
			}
		}

		s.normalize(store, "import")

		return nil
	}

	err = s.cache.Update(apply)

	log.Info().
		Err(err).
		Str("mode", string(mode)).
		Int("imported", result.Imported).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Msg("Imported CSV")

	op := OpCSVIncrement
	if mode == ImportReplace {
		op = OpCSVReplace
	}

	s.history.record(op, source, result.Imported+result.Updated, err)

	return result, err
}

// readCSV returns the valid, trimmed rows of r.
func readCSV(r io.Reader, result *ImportResult) ([]Entry, error) {
	cr := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrCSVHeader
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var entries []Entry

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		line, _ := cr.FieldPos(0)

		field := func(i int) string {
			if columns[i] < 0 || columns[i] >= len(record) {
				return ""
			}

			return record[columns[i]]
		}

		e := Entry{Category: field(0), Name: field(1), Translation: field(2), Note: field(3)}.Trimmed()
		if err := e.Validate(); err != nil {
			result.skip(line, err)

			continue
		}

		entries = append(entries, e)
	}

	return entries, nil
}

// mapColumns returns, for each csvHeader position, the record index holding
// it or -1. Only the note column may be missing.
func mapColumns(header []string) ([]int, error) {
	columns := []int{-1, -1, -1, -1}

	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))

		for pos, aliases := range csvAliases {
			for _, alias := range aliases {
				if h == alias && columns[pos] < 0 {
					columns[pos] = i
				}
			}
		}
	}

	for pos := range 3 {
		if columns[pos] < 0 {
			return nil, fmt.Errorf("%w: missing %q", ErrCSVHeader, csvHeader[pos])
		}
	}

	return columns, nil
}
