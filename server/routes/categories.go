// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"fmt"
	"net/http"

	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

// Categories lists the categories in collation order with their term counts.
func (api *API) Categories(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, "ok", api.Service.Categories())
}

// CategoryTerms lists the terms of {category}.
func (api *API) CategoryTerms(w http.ResponseWriter, r *http.Request) error {
	list, err := api.Service.Terms(r.PathValue("category"))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, "ok", list)
}

// DeleteTerm removes {name} from {category}.
func (api *API) DeleteTerm(w http.ResponseWriter, r *http.Request) error {
	err := api.Service.DeleteTerm(r.Context(), r.PathValue("category"), r.PathValue("name"))
	if err := persisted(r, err); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, "term deleted", nil)
}

// DeleteTermsRequest selects the terms DeleteTerms removes.
type DeleteTermsRequest struct {
	Selections []terms.Selection `json:"selections"`
}

// DeleteTerms removes every selected term in one write.
func (api *API) DeleteTerms(w http.ResponseWriter, r *http.Request) error {
	var req DeleteTermsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	deleted, err := api.Service.DeleteTerms(r.Context(), req.Selections)
	if err := persisted(r, err); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, fmt.Sprintf("deleted %d terms", deleted), map[string]int{
		"deletedCount": deleted,
	})
}

// Stats reports store totals.
func (api *API) Stats(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, "ok", api.Service.Stats())
}
