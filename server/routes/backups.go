// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"mime"
	"net/http"
)

// ListBackups lists the rotated backups, newest first.
func (api *API) ListBackups(w http.ResponseWriter, _ *http.Request) error {
	list, err := api.Backups.Backups()
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, "ok", list)
}

// DownloadBackup serves the backup file {name}.
func (api *API) DownloadBackup(w http.ResponseWriter, r *http.Request) error {
	f, info, err := api.Backups.OpenBackup(r.PathValue("name"))
	if err != nil {
		return err
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}))

	http.ServeContent(w, r, info.Name, info.Created, f)

	return nil
}

// RestoreBackup replaces the store with backup {name}. The replaced document
// becomes a backup itself.
func (api *API) RestoreBackup(w http.ResponseWriter, r *http.Request) error {
	stats, err := api.Service.Restore(r.Context(), api.Backups, r.PathValue("name"))
	if err := persisted(r, err); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, "backup restored", stats)
}
