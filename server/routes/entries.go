// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"mime"
	"net/http"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

// AddEntry creates or updates a single term. The body is either JSON or a
// form with category, name (or term), translation (or trans) and note.
func (api *API) AddEntry(w http.ResponseWriter, r *http.Request) error {
	entry, err := parseEntry(w, r)
	if err != nil {
		return err
	}

	created, err := api.Service.Upsert(r.Context(), entry)
	if err := persisted(r, err); err != nil {
		return err
	}

	entry = entry.Trimmed()

	if created {
		return writeJSON(w, http.StatusCreated, "term created", entry)
	}

	return writeJSON(w, http.StatusOK, "term updated", entry)
}

func parseEntry(w http.ResponseWriter, r *http.Request) (terms.Entry, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "application/json" {
		var entry terms.Entry

		err := decodeJSON(w, r, &entry)

		return entry, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Global.Request.MaxBodyBytes)

	if err := r.ParseForm(); err != nil {
		return terms.Entry{}, BadRequest("failed to parse form", err)
	}

	return terms.Entry{
		Category:    r.PostForm.Get("category"),
		Name:        formValue(r, "name", "term"),
		Translation: formValue(r, "translation", "trans"),
		Note:        r.PostForm.Get("note"),
	}, nil
}

// formValue returns the first non-empty form field among keys.
func formValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := r.PostForm.Get(k); v != "" {
			return v
		}
	}

	return ""
}
