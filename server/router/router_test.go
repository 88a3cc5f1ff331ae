// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/collate"
	"github.com/self-exiler/NaiBotAssistant/core/document"
	"github.com/self-exiler/NaiBotAssistant/core/termcache"
	"github.com/self-exiler/NaiBotAssistant/core/terms"
	"github.com/self-exiler/NaiBotAssistant/server/middleware"
	"github.com/self-exiler/NaiBotAssistant/server/routes"
)

func TestMain(m *testing.M) {
	config.Global.SetDefaults()

	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()

	dir := t.TempDir()

	doc := document.New(document.Options{
		Path:      filepath.Join(dir, "data.json"),
		BackupDir: filepath.Join(dir, "backups"),
	})

	cache := termcache.New(doc)
	require.NoError(t, cache.Load())

	router := NewRouter()
	router.DefineRoutes(&routes.API{Service: terms.New(cache, collate.Codepoint{}), Backups: doc})
	require.NoError(t, router.RegisterMiddleware())

	return router
}

func serve(router *Router, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	return rr
}

func envelope(t *testing.T, rr *httptest.ResponseRecorder) routes.Envelope {
	t.Helper()

	var env routes.Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())

	return env
}

func TestRouterEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	rr := serve(router, http.MethodGet, "/api/v1/health", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = serve(router, http.MethodPost, "/api/v1/entries", "application/json",
		`{"category":"角色","name":"猫娘","translation":"catgirl"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, http.StatusCreated, envelope(t, rr).Code)

	rr = serve(router, http.MethodGet, "/api/v1/categories", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"key":"角色"`)

	rr = serve(router, http.MethodGet, "/api/v1/search?keyword=cat", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "catgirl")

	rr = serve(router, http.MethodGet, "/api/v1/search?keyword=cat&page=9223372036854775807", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"entries":[]`)
}

func TestRouterErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown path", http.MethodGet, "/nope", "", http.StatusNotFound},
		{"unknown category", http.MethodGet, "/api/v1/categories/none/terms", "", http.StatusNotFound},
		{"invalid json", http.MethodPost, "/api/v1/combine", "{", http.StatusBadRequest},
		{"empty keyword", http.MethodGet, "/api/v1/search", "", http.StatusBadRequest},
		{"bad page", http.MethodGet, "/api/v1/search?keyword=a&page=0", "", http.StatusBadRequest},
		{"unknown format", http.MethodGet, "/api/v1/export/xml", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(router, tt.method, tt.target, "application/json", tt.body)

			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, tt.want, envelope(t, rr).Code)
		})
	}
}

func TestRouterLegacyRedirect(t *testing.T) {
	router := newTestRouter(t)

	rr := serve(router, http.MethodPost, "/api/add_entry", "", "")
	assert.Equal(t, http.StatusPermanentRedirect, rr.Code)
	assert.Equal(t, "/api/v1/entries", rr.Header().Get("Location"))
}

func TestRouterMetrics(t *testing.T) {
	router := newTestRouter(t)

	rr := serve(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "naibot_cache_terms")
}

func TestRouterMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string

	mark := func(name string) middleware.Middleware {
		return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
			order = append(order, name)
			next.ServeHTTP(w, r)
		}
	}

	router := NewRouter()
	router.Use(mark("outer"))
	router.Use(mark("inner"))
	router.API(http.MethodGet, "/ping", func(w http.ResponseWriter, _ *http.Request) error {
		order = append(order, "handler")
		w.WriteHeader(http.StatusNoContent)

		return nil
	})

	// Too late, the chain is built on the first request.
	rr := serve(router, http.MethodGet, "/api/v1/ping", "", "")
	router.Use(mark("late"))
	serve(router, http.MethodGet, "/api/v1/ping", "", "")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"outer", "inner", "handler", "outer", "inner", "handler"}, order)
	assert.Equal(t, []string{"GET /api/v1/ping"}, router.Patterns())
}

func TestRouterRegistersAPIUnderPrefix(t *testing.T) {
	router := newTestRouter(t)

	patterns := router.Patterns()
	assert.Contains(t, patterns, "DELETE /api/v1/terms")
	assert.Contains(t, patterns, "GET /api/v1/status")
	assert.Contains(t, patterns, "GET /api/v1/history")
	assert.Contains(t, patterns, "GET /metrics")
}

func TestRouterBatchDeleteStatusAndHistory(t *testing.T) {
	router := newTestRouter(t)

	for _, body := range []string{
		`{"category":"角色","name":"猫娘","translation":"catgirl"}`,
		`{"category":"角色","name":"精灵","translation":"elf"}`,
		`{"category":"场景","name":"海边","translation":"seaside"}`,
	} {
		rr := serve(router, http.MethodPost, "/api/v1/entries", "application/json", body)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr := serve(router, http.MethodPost, "/api/v1/import/csv?mode=increment", "text/csv", "分类,名称,译文\n场景,森林,forest\n")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = serve(router, http.MethodDelete, "/api/v1/terms", "application/json",
		`{"selections":[{"category":"角色","name":"猫娘"},{"category":"场景","name":"海边"},{"category":"nope","name":"x"}]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, map[string]any{"deletedCount": float64(2)}, envelope(t, rr).Data)

	rr = serve(router, http.MethodGet, "/api/v1/stats", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"totalCategories": float64(2), "totalTerms": float64(2)}, envelope(t, rr).Data)

	rr = serve(router, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	status, ok := envelope(t, rr).Data.(map[string]any)
	require.True(t, ok)

	storage, ok := status["storage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, storage["exists"])
	assert.NotNil(t, storage["lastWrite"])
	// One rotation per write after the first.
	assert.Equal(t, float64(4), storage["backupCount"])

	rr = serve(router, http.MethodGet, "/api/v1/history", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	history, ok := envelope(t, rr).Data.([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
	assert.Equal(t, "csv_increment", history[0].(map[string]any)["operation"])
}
