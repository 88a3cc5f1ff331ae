// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

// Data returns the flattened entries of ?category= for the batch editor.
// Without a category, or for an unknown one, the list is empty.
func (api *API) Data(w http.ResponseWriter, r *http.Request) error {
	category := r.URL.Query().Get("category")
	if category == "" {
		return writeJSON(w, http.StatusOK, "ok", []terms.Entry{})
	}

	return writeJSON(w, http.StatusOK, "ok", api.Service.Entries(category))
}

// SaveData reconciles an editor session into the store. The response carries
// the reconciliation summary and the categories as they are afterwards.
func (api *API) SaveData(w http.ResponseWriter, r *http.Request) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}

	edit, err := terms.ParseEdit(body)
	if err != nil {
		return err
	}

	if err := terms.ValidateEdit(edit); err != nil {
		return err
	}

	result, err := api.Service.Reconcile(r.Context(), edit)
	if err := persisted(r, err); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, "data merged and sorted", map[string]any{
		"result":     result,
		"categories": api.Service.Categories(),
	})
}
