// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package glossary

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
)

// MarshalJSON encodes s as an object whose keys appear in store order.
func (s Store) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')

	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}

		if err := enc.Encode(c.Key); err != nil {
			return nil, err
		}

		buf.WriteByte(':')

		terms := c.Terms
		if terms == nil {
			terms = []Term{}
		}

		if err := enc.Encode(terms); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object of category key to term list, keeping the
// document's key order. A repeated key replaces the earlier value.
func (s *Store) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	out, err := decodeStore(dec)
	if err != nil {
		return err
	}

	*s = out

	return nil
}

// Decode reads a Store from r. Anything after the object is an error.
func Decode(r io.Reader) (Store, error) {
	dec := json.NewDecoder(r)

	out, err := decodeStore(dec)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return out, nil
}

func decodeStore(dec *json.Decoder) (Store, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	out := Store{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("category %q: %w", key, err)
		}

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || raw[0] != '[' {
			return nil, fmt.Errorf("category %q: %w", key, ErrNotList)
		}

		var terms []Term
		if err := json.Unmarshal(raw, &terms); err != nil {
			return nil, fmt.Errorf("category %q: %w", key, err)
		}

		out.Set(key, terms)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return out, nil
}

// UnmarshalJSON decodes a term, also accepting the older "term" and "trans"
// field names. The current names win when both are set.
func (t *Term) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string `json:"name"`
		Translation string `json:"translation"`
		Note        string `json:"note"`
		Term        string `json:"term"`
		Trans       string `json:"trans"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*t = Term{
		Name:        cmp.Or(raw.Name, raw.Term),
		Translation: cmp.Or(raw.Translation, raw.Trans),
		Note:        raw.Note,
	}

	return nil
}

// MarshalYAML encodes s as an ordered YAML mapping.
func (s Store) MarshalYAML() (any, error) {
	doc := make(yaml.MapSlice, 0, len(s))

	for _, c := range s {
		terms := c.Terms
		if terms == nil {
			terms = []Term{}
		}

		doc = append(doc, yaml.MapItem{Key: c.Key, Value: terms})
	}

	return doc, nil
}
