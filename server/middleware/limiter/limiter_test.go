// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/server/middleware"
	"github.com/self-exiler/NaiBotAssistant/server/request_context"
)

// setupLimiter installs a test configuration and a controllable clock. The
// tests below share package state and must not run in parallel.
func setupLimiter(t *testing.T, writes, burst int, pass ...string) *time.Time {
	t.Helper()

	prevCfg, prevNow := config.Global, timeNow

	config.Global.Limiter.WritesPerInterval = writes
	config.Global.Limiter.Interval = time.Minute
	config.Global.Limiter.Burst = burst
	config.Global.Limiter.PassIPs = pass
	config.Global.Limiter.IdleTimeout = 15 * time.Minute
	config.Global.Limiter.IPv4Prefix = 32
	config.Global.Limiter.IPv6Prefix = 64
	config.Global.Limiter.TrustedProxies = nil

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }

	Fini()
	require.NoError(t, Init())

	t.Cleanup(func() {
		Fini()

		config.Global, timeNow = prevCfg, prevNow
	})

	return &now
}

func serve(method, remoteAddr string) *httptest.ResponseRecorder {
	handler := middleware.Wrap(Evaluate, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(method, "/api/v1/entries", nil)
	req.RemoteAddr = remoteAddr
	req = req.WithContext(request_context.WithRequestContext(req.Context()))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func TestEvaluateLimitsWrites(t *testing.T) {
	now := setupLimiter(t, 60, 2)

	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost, "1.1.1.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, serve(http.MethodDelete, "1.1.1.1:1001").Code)

	denied := serve(http.MethodPost, "1.1.1.1:1002")
	require.Equal(t, http.StatusTooManyRequests, denied.Code)
	assert.Equal(t, "1", denied.Header().Get("Retry-After"))
	assert.Contains(t, denied.Body.String(), "too many write requests")

	// Another client has its own bucket.
	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost, "2.2.2.2:1000").Code)

	// One write per second refills.
	*now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost, "1.1.1.1:1003").Code)
}

func TestEvaluateIgnoresReads(t *testing.T) {
	setupLimiter(t, 1, 1)

	for range 5 {
		assert.Equal(t, http.StatusNoContent, serve(http.MethodGet, "1.1.1.1:1000").Code)
	}
}

func TestEvaluatePassList(t *testing.T) {
	setupLimiter(t, 1, 1, "10.0.0.0/8")

	for range 5 {
		assert.Equal(t, http.StatusNoContent, serve(http.MethodPost, "10.1.2.3:1000").Code)
	}
}

func TestEvaluateGroupsIPv6Prefix(t *testing.T) {
	setupLimiter(t, 1, 1)

	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost, "[2001:db8::1]:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(http.MethodPost, "[2001:db8::2]:1000").Code)
}

func TestCleanupExpiredLimiters(t *testing.T) {
	now := setupLimiter(t, 60, 1)

	getOrCreateLimiter("1.1.1.1/32").allow()

	*now = now.Add(10 * time.Minute)
	getOrCreateLimiter("2.2.2.2/32").allow()

	*now = now.Add(10 * time.Minute)
	assert.Equal(t, 1, cleanupExpiredLimiters())

	_, stale := limiters.Load("1.1.1.1/32")
	_, fresh := limiters.Load("2.2.2.2/32")
	assert.False(t, stale)
	assert.True(t, fresh)
}

func TestEvaluateUsesConfiguredPrefix(t *testing.T) {
	setupLimiter(t, 1, 1)

	config.Global.Limiter.IPv4Prefix = 24
	require.NoError(t, Init())

	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost, "203.0.113.7:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(http.MethodPost, "203.0.113.99:1000").Code)
	assert.Equal(t, http.StatusNoContent, serve(http.MethodPost, "203.0.114.7:1000").Code)
}

func TestInitRejectsMalformedPassList(t *testing.T) {
	setupLimiter(t, 1, 1)

	config.Global.Limiter.PassIPs = []string{"not-an-ip"}
	require.Error(t, Init())
}
