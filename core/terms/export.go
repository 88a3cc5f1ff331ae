// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package terms

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/self-exiler/NaiBotAssistant/core/document"
)

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ErrUnknownFormat is returned for an export format other than json, yaml
// or csv.
var ErrUnknownFormat = fmt.Errorf("format must be one of %s, %s or %s", FormatJSON, FormatYAML, FormatCSV)

// ParseFormat maps a path or query value to a Format. "yml" is accepted.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", ErrUnknownFormat
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Export writes the store in format f. category restricts CSV output and is
// ignored otherwise.
func (s *Service) Export(w io.Writer, f Format, category string) error {
	switch f {
	case FormatJSON:
		data, err := document.Encode(s.cache.Snapshot())
		if err != nil {
			return err
		}

		_, err = w.Write(data)

		return err
	case FormatYAML:
		return yaml.NewEncoder(w).Encode(s.cache.Snapshot())
	case FormatCSV:
		return s.ExportCSV(w, category)
	default:
		return ErrUnknownFormat
	}
}
