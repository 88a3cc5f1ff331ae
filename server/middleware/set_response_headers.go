// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"

	"github.com/self-exiler/NaiBotAssistant/config"
)

// baseHeaders defines the default headers to be set in responses.
//
// Naibot-Version and Naibot-Revision are added dynamically in SetResponseHeaders.
var baseHeaders = http.Header{
	"Referrer-Policy":         {"no-referrer"},
	"X-Frame-Options":         {"DENY"},
	"X-Content-Type-Options":  {"nosniff"},
	"Content-Security-Policy": {"default-src 'none'; frame-ancestors 'none'"},
	"Cache-Control":           {"no-store"},
}

// SetResponseHeaders adds default headers to HTTP responses. API responses
// reflect the live store, so none of them is cacheable.
func SetResponseHeaders(w http.ResponseWriter, r *http.Request, next http.Handler) {
	headers := w.Header()

	maps.Insert(headers, maps.All(baseHeaders))

	headers.Set("Naibot-Version", config.BuildVersion)
	headers.Set("Naibot-Revision", config.Global.Build.Revision())

	next.ServeHTTP(w, r)
}
