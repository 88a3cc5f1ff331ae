// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"strings"
)

// legacyPrefixes maps the unversioned API paths older clients use to their
// current equivalents.
var legacyPrefixes = []struct{ from, to string }{
	{"/api/categories", "/api/v1/categories"},
	{"/api/data", "/api/v1/data"},
	{"/api/add_entry", "/api/v1/entries"},
}

// NormalizeURL is a middleware that handles URL normalization by:
// 1. Removing trailing slashes from URLs (except root).
// 2. Redirecting legacy unversioned API paths.
//
// Redirects use 308 so that clients repeat POST bodies.
func NormalizeURL(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if target, ok := legacyTarget(r.URL.Path); ok {
		redirectTo(w, r, target)

		return
	}

	if hasTrailingSlash(r) {
		redirectTo(w, r, strings.TrimSuffix(r.URL.Path, "/"))

		return
	}

	next.ServeHTTP(w, r)
}

// hasTrailingSlash checks if a request path has a trailing slash (except root
// and the debug handlers, whose index pages live under a slash).
func hasTrailingSlash(r *http.Request) bool {
	return r.URL.Path != "/" &&
		!strings.HasPrefix(r.URL.Path, "/debug/") &&
		strings.HasSuffix(r.URL.Path, "/")
}

// legacyTarget returns the current path for a legacy API path.
func legacyTarget(path string) (string, bool) {
	if category, ok := strings.CutPrefix(path, "/api/terms/"); ok && category != "" {
		return "/api/v1/categories/" + category + "/terms", true
	}

	for _, p := range legacyPrefixes {
		if path == p.from {
			return p.to, true
		}
	}

	return "", false
}

// redirectTo keeps the query string. path always starts with a single slash,
// so the redirect stays on this host.
func redirectTo(w http.ResponseWriter, r *http.Request, path string) {
	target := *r.URL
	target.Path = path
	target.RawPath = ""

	http.Redirect(w, r, target.RequestURI(), http.StatusPermanentRedirect)
}
