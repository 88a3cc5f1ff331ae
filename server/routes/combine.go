// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

// Combine assembles a prompt from the translations of the selected terms.
func (api *API) Combine(w http.ResponseWriter, r *http.Request) error {
	var req terms.CombineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := api.Service.Combine(req, config.Global.Request.PromptPrefix)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, "prompt combined", result)
}
