// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/document"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
	"github.com/self-exiler/NaiBotAssistant/server/request_context"
)

// HTTPError is an error with a status code and an optional payload for the
// envelope's errors field.
type HTTPError struct {
	Status  int
	Message string
	Details any
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

// BadRequest returns a 400 HTTPError.
func BadRequest(message string, err error) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: message, Err: err}
}

// badRequestErrors are input errors from the core; their text is safe to show.
var badRequestErrors = []error{
	terms.ErrInvalidEdit,
	terms.ErrMissingLoadedCategory,
	terms.ErrEmptyCategory,
	terms.ErrEmptyName,
	terms.ErrInvalidImportMode,
	terms.ErrNoSelection,
	terms.ErrEmptyKeyword,
	terms.ErrCSVHeader,
	terms.ErrUnknownFormat,
	document.ErrInvalidBackupName,
}

// StatusOf maps an error returned by a handler to a status code.
func StatusOf(err error) int {
	var (
		httpErr *HTTPError
		verr    *terms.ValidationError
	)

	switch {
	case errors.As(err, &httpErr):
		return httpErr.Status
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, terms.ErrNotFound), errors.Is(err, document.ErrBackupNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}

	return http.StatusInternalServerError
}

// ErrorResponse writes the envelope for the request's error and status,
// as stored in its request context by middleware.CatchError.
//
// Server errors are reported generically outside development; the request ID
// ties the response to the log line.
func ErrorResponse(w http.ResponseWriter, r *http.Request) {
	ctx := request_context.FromRequest(r)

	w.Header().Set("Cache-Control", "no-store")

	env := Envelope{Code: ctx.StatusCode, Message: http.StatusText(ctx.StatusCode)}

	var (
		httpErr *HTTPError
		verr    *terms.ValidationError
	)

	switch {
	case errors.As(ctx.RequestError, &verr):
		env.Message = "validation failed"
		env.Errors = verr.Fields
	case errors.As(ctx.RequestError, &httpErr):
		env.Message = httpErr.Message
		env.Errors = httpErr.Details
	case ctx.RequestError == nil:
	case ctx.StatusCode < http.StatusInternalServerError || config.Global.Development.InDevelopment:
		env.Message = ctx.RequestError.Error()
	}

	if ctx.StatusCode >= http.StatusInternalServerError {
		env.Data = map[string]string{"requestId": ctx.RequestID}
	}

	_ = writeEnvelope(w, env)
}
