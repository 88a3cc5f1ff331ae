// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"
	"slices"
	"sync"

	"github.com/self-exiler/NaiBotAssistant/server/middleware"
)

// apiPrefix is prepended to every pattern registered with API.
const apiPrefix = "/api/v1"

// Router is an http.ServeMux behind a middleware chain. It also remembers
// the patterns it was given so the route table can be listed.
type Router struct {
	mux         *http.ServeMux
	middlewares []middleware.Middleware
	patterns    []string

	once  sync.Once
	chain http.Handler
}

// NewRouter creates a new Router instance.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Use appends m to the chain. Middleware added after the first request is
// ignored.
func (router *Router) Use(m middleware.Middleware) {
	router.middlewares = append(router.middlewares, m)
}

// Handle registers h for pattern, see http.ServeMux.
func (router *Router) Handle(pattern string, h http.Handler) {
	router.patterns = append(router.patterns, pattern)
	router.mux.Handle(pattern, h)
}

// HandleFunc registers f for pattern, see http.ServeMux.
func (router *Router) HandleFunc(pattern string, f http.HandlerFunc) {
	router.Handle(pattern, f)
}

// API registers a JSON handler under /api/v1. Errors it returns are turned
// into error envelopes by middleware.CatchError.
func (router *Router) API(method, path string, h func(http.ResponseWriter, *http.Request) error) {
	router.HandleFunc(method+" "+apiPrefix+path, middleware.CatchError(h))
}

// Patterns returns the registered patterns in registration order.
func (router *Router) Patterns() []string {
	return slices.Clone(router.patterns)
}

// ServeHTTP runs the request through the middleware, first added outermost,
// and then the mux.
func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.once.Do(func() {
		h := http.Handler(router.mux)
		for _, m := range slices.Backward(router.middlewares) {
			h = middleware.Wrap(m, h)
		}

		router.chain = h
	})

	router.chain.ServeHTTP(w, r)
}
