// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"
	"runtime"
	"time"

	"github.com/self-exiler/NaiBotAssistant/config"
)

// Status reports the document on disk, its backups and the running process.
func (api *API) Status(w http.ResponseWriter, _ *http.Request) error {
	storage, err := api.Backups.Status()
	if err != nil {
		return err
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	server := map[string]any{
		"status":     "running",
		"startedAt":  config.Global.Instance.StartingTime,
		"goroutines": runtime.NumGoroutine(),
		"heapBytes":  mem.HeapAlloc,
	}

	if started := config.Global.Instance.Started; !started.IsZero() {
		server["uptime"] = time.Since(started).Truncate(time.Second).String()
	}

	return writeJSON(w, http.StatusOK, "ok", map[string]any{
		"storage": storage,
		"stats":   api.Service.Stats(),
		"server":  server,
		"backup": map[string]any{
			"maxBackups":    config.Global.Store.MaxBackups,
			"pruneInterval": config.Global.Store.PruneInterval.String(),
		},
	})
}

// History lists the recent CSV imports and backup restores, newest first.
func (api *API) History(w http.ResponseWriter, _ *http.Request) error {
	return writeJSON(w, http.StatusOK, "ok", api.Service.History())
}
