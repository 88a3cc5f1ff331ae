// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/self-exiler/NaiBotAssistant/config"
)

// CleanupInterval is the interval between limiter cleanup runs.
const CleanupInterval = 5 * time.Minute

var (
	limiters sync.Map   // In-memory storage for rate limiters, keyed by network.
	timeNow  = time.Now // Wrapper for time.Now, which allows us to mock it in tests.
)

// limiterWrapper holds a rate limiter and the time it was last used.
type limiterWrapper struct {
	limiter    *rate.Limiter
	network    string
	lastAccess time.Time
	mu         sync.Mutex
}

// writeLimit converts the configured writes per interval into a rate.
func writeLimit() rate.Limit {
	cfg := config.Global.Limiter

	return rate.Every(cfg.Interval / time.Duration(cfg.WritesPerInterval))
}

// Init installs the address policy and logs the active limits. Limiters
// themselves are created lazily. Clients are grouped by network, by default
// a single IPv4 address or an IPv6 /64 since one host usually owns the whole
// prefix.
func Init() error {
	cfg := config.Global.Limiter

	policy, err := newAddressPolicy(cfg.IPv4Prefix, cfg.IPv6Prefix, cfg.PassIPs, cfg.TrustedProxies)
	if err != nil {
		return err
	}

	active.Store(policy)

	log.Info().
		Int("writes", cfg.WritesPerInterval).
		Dur("interval", cfg.Interval).
		Int("burst", cfg.Burst).
		Int("ipv4_prefix", cfg.IPv4Prefix).
		Int("ipv6_prefix", cfg.IPv6Prefix).
		Strs("pass_list", cfg.PassIPs).
		Strs("trusted_proxies", cfg.TrustedProxies).
		Msg("Limiter enabled for write requests")

	return nil
}

// Fini drops every limiter and the installed policy.
func Fini() {
	active.Store(nil)

	count := 0

	limiters.Range(func(key, _ any) bool {
		limiters.Delete(key)

		count++

		return true
	})

	log.Info().Int("count", count).Msg("Limiter state discarded")
}

// getOrCreateLimiter returns the limiter for network, creating it with the
// configured rate and burst if missing.
func getOrCreateLimiter(network string) *limiterWrapper {
	now := timeNow()

	fresh := &limiterWrapper{
		limiter:    rate.NewLimiter(writeLimit(), config.Global.Limiter.Burst),
		network:    network,
		lastAccess: now,
	}

	value, _ := limiters.LoadOrStore(network, fresh)

	limWrapper, ok := value.(*limiterWrapper)
	if !ok {
		log.Error().Str("network", network).Msg("Invalid limiter type in store, replacing")
		limiters.Store(network, fresh)

		return fresh
	}

	return limWrapper
}

// allow takes one token at the current time. It returns whether the request
// may proceed, the tokens left and, when denied, how long until the next
// token.
func (lw *limiterWrapper) allow() (bool, int, time.Duration) {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	now := timeNow()
	lw.lastAccess = now

	reservation := lw.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)

		return false, 0, delay
	}

	return true, int(lw.limiter.TokensAt(now)), 0
}

// cleanupExpiredLimiters removes limiters idle for longer than IdleTimeout.
func cleanupExpiredLimiters() int {
	cutoff := timeNow().Add(-config.Global.Limiter.IdleTimeout)
	removed := 0

	limiters.Range(func(key, value any) bool {
		limWrapper, ok := value.(*limiterWrapper)
		if !ok {
			limiters.Delete(key)

			return true
		}

		limWrapper.mu.Lock()
		expired := limWrapper.lastAccess.Before(cutoff)
		limWrapper.mu.Unlock()

		if expired {
			limiters.Delete(key)

			removed++
		}

		return true
	})

	return removed
}
