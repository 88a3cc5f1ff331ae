// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"net/http"

	"github.com/self-exiler/NaiBotAssistant/server/request_context"
)

// WithRequestContext is a middleware that attaches a RequestContext to each
// HTTP request and echoes its ID in the X-Request-ID header.
func WithRequestContext(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := request_context.WithRequestContext(r.Context())

	w.Header().Set("X-Request-ID", request_context.FromContext(ctx).RequestID)

	next.ServeHTTP(w, r.WithContext(ctx))
}
