// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

// gzipWrapper compresses responses of 1 KiB or more for clients that accept
// gzip. Exports and large category listings benefit the most.
var gzipWrapper = mustGzipWrapper()

func mustGzipWrapper() func(http.Handler) http.HandlerFunc {
	wrapper, err := gzhttp.NewWrapper(gzhttp.MinSize(1024))
	if err != nil {
		log.Panic().Err(err).Msg("Failed to create gzip wrapper")
	}

	return wrapper
}

// Compress gzips the response when the client supports it.
func Compress(w http.ResponseWriter, r *http.Request, next http.Handler) {
	gzipWrapper(next).ServeHTTP(w, r)
}
