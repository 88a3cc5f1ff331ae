// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/server/request_context"
	"github.com/self-exiler/NaiBotAssistant/server/routes"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
)

var errTooManyWrites = errors.New("too many write requests, slow down")

// isWrite reports whether the method can modify the store.
func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// Evaluate is the entrypoint to the limiter middleware. Reads always pass;
// writes take a token from the client's network.
func Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	defer DoCleanup()

	if !isWrite(r.Method) {
		next.ServeHTTP(w, r)

		return
	}

	policy, err := currentPolicy()
	if err != nil {
		log.Error().Err(err).Msg("Limiter configuration is invalid, not limiting")
		next.ServeHTTP(w, r)

		return
	}

	client, err := newClientInfo(policy, r)
	if err != nil {
		// Without an address there is nothing to key a limiter on.
		log.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Limiter could not identify client")
		next.ServeHTTP(w, r)

		return
	}

	if client.passList {
		next.ServeHTTP(w, r)

		return
	}

	allowed, remaining, wait := getOrCreateLimiter(client.network.String()).allow()
	if !allowed {
		seconds := strconv.Itoa(int(math.Ceil(wait.Seconds())))

		log.Warn().
			Str("ip", client.addr.String()).
			Str("network", client.network.String()).
			Dur("retry_after", wait).
			Msg("Write request rate limited")

		w.Header().Set("Retry-After", seconds)
		w.Header().Set(HeaderRateLimitRemaining, "0")
		w.Header().Set(HeaderRateLimitReset, seconds)

		ctx := request_context.FromRequest(r)
		ctx.RequestError = errTooManyWrites
		ctx.StatusCode = http.StatusTooManyRequests

		routes.ErrorResponse(w, r)

		return
	}

	w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))

	next.ServeHTTP(w, r)
}
