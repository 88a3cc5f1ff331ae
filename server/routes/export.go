// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

// Export downloads the glossary as {format}. ?category= restricts CSV output.
func (api *API) Export(w http.ResponseWriter, r *http.Request) error {
	format, err := terms.ParseFormat(r.PathValue("format"))
	if err != nil {
		return err
	}

	// Buffered so that a failure can still become an error response.
	var buf bytes.Buffer
	if err := api.Service.Export(&buf, format, r.URL.Query().Get("category")); err != nil {
		return err
	}

	filename := fmt.Sprintf("naibot_glossary_%s.%s", time.Now().Format("20060102_150405"), format)

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Cache-Control", "no-store")

	_, err = buf.WriteTo(w)

	return err
}

// ImportCSV loads entries from a CSV upload, either a multipart "file" field
// or the raw request body. ?mode= is increment (default) or replace.
func (api *API) ImportCSV(w http.ResponseWriter, r *http.Request) error {
	mode, err := terms.ParseImportMode(r.URL.Query().Get("mode"))
	if err != nil {
		return err
	}

	body, filename, err := csvBody(w, r)
	if err != nil {
		return err
	}

	result, err := api.Service.ImportCSV(r.Context(), bytes.NewReader(body), mode, filename)
	if err := persisted(r, err); err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, "import finished", result)
}

// csvBody returns the upload and its file name, which is empty for a raw body.
func csvBody(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		body, err := readBody(w, r)

		return body, "", err
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Global.Request.MaxBodyBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", BadRequest("missing CSV file in field \"file\"", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		return nil, "", BadRequest("failed to read uploaded file", err)
	}

	return buf.Bytes(), header.Filename, nil
}
