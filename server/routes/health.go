// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"github.com/self-exiler/NaiBotAssistant/config"
)

// Health reports the build and instance the request reached.
func (api *API) Health(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, "ok", map[string]any{
		"status":    "healthy",
		"version":   config.BuildVersion,
		"revision":  config.Global.Build.Revision(),
		"startedAt": config.Global.Instance.StartingTime,
		"instance":  config.Global.Instance.InstanceID,
		"stats":     api.Service.Stats(),
	})
}
