// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes holds the JSON API handlers.

Handlers have the signature func(w, r) error and are wrapped by
middleware.CatchError, which turns a returned error into an error envelope.
*/
package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/document"
	"github.com/self-exiler/NaiBotAssistant/core/glossary"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
)

// BackupStore is the part of the persistent store the backup and status
// routes use.
type BackupStore interface {
	Status() (document.Status, error)
	Backups() ([]document.BackupInfo, error)
	OpenBackup(name string) (io.ReadSeekCloser, document.BackupInfo, error)
	ReadBackup(name string) (glossary.Store, error)
}

// API binds the handlers to one glossary.
type API struct {
	Service *terms.Service
	Backups BackupStore
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Errors    any    `json:"errors,omitempty"`
	Timestamp string `json:"timestamp"`
}

// writeJSON sends data wrapped in an Envelope.
func writeJSON(w http.ResponseWriter, status int, message string, data any) error {
	return writeEnvelope(w, Envelope{Code: status, Message: message, Data: data})
}

func writeEnvelope(w http.ResponseWriter, env Envelope) error {
	env.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(env.Code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(env)
}

// decodeJSON reads a JSON request body of at most Request.MaxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return BadRequest("request body must be valid JSON", err)
	}

	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, config.Global.Request.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &HTTPError{Status: http.StatusRequestEntityTooLarge, Message: "request body too large", Err: err}
		}

		return nil, BadRequest("failed to read request body", err)
	}

	return body, nil
}

// persisted decides what a write error means for the response. A failed
// backup rotation is only logged; the new data was written. Any other error
// fails the request, although the in-memory store already holds the change.
func persisted(r *http.Request, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, document.ErrBackup) {
		log.Warn().
			Err(err).
			Str("path", r.URL.Path).
			Msg("Backup rotation failed, the write itself succeeded")

		return nil
	}

	return err
}
