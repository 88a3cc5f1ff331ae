// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/self-exiler/NaiBotAssistant/config"
)

// addressPolicy decides which address a request is charged to and which
// network bucket that address belongs to.
type addressPolicy struct {
	ipv4Bits int
	ipv6Bits int

	// pass lists clients that are never limited.
	pass []netip.Prefix

	// trusted lists peers whose forwarding headers are believed. Empty means
	// private and loopback peers.
	trusted []netip.Prefix
}

// active is the policy built by Init; nil until then.
var active atomic.Pointer[addressPolicy]

// newAddressPolicy builds a policy from the limiter configuration.
func newAddressPolicy(ipv4Bits, ipv6Bits int, pass, trusted []string) (*addressPolicy, error) {
	passPrefixes, err := parsePrefixes(pass)
	if err != nil {
		return nil, fmt.Errorf("pass list: %w", err)
	}

	trustedPrefixes, err := parsePrefixes(trusted)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	return &addressPolicy{
		ipv4Bits: ipv4Bits,
		ipv6Bits: ipv6Bits,
		pass:     passPrefixes,
		trusted:  trustedPrefixes,
	}, nil
}

// currentPolicy returns the policy installed by Init, or one built from the
// current configuration.
func currentPolicy() (*addressPolicy, error) {
	if p := active.Load(); p != nil {
		return p, nil
	}

	cfg := config.Global.Limiter

	return newAddressPolicy(cfg.IPv4Prefix, cfg.IPv6Prefix, cfg.PassIPs, cfg.TrustedProxies)
}

// parsePrefixes accepts CIDR prefixes and bare addresses, which become
// single-address prefixes.
func parsePrefixes(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)

		if prefix, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, prefix.Masked())

			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("%q is neither an address nor a prefix", entry)
		}

		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return out, nil
}

func containsAddr(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, prefix := range prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}

// trusts reports whether forwarding headers from peer are believed.
func (p *addressPolicy) trusts(peer netip.Addr) bool {
	if len(p.trusted) == 0 {
		return peer.IsPrivate() || peer.IsLoopback()
	}

	return containsAddr(p.trusted, peer)
}

// passes reports whether addr skips the limiter.
func (p *addressPolicy) passes(addr netip.Addr) bool {
	return containsAddr(p.pass, addr)
}

// network returns the bucket addr is charged to.
func (p *addressPolicy) network(addr netip.Addr) netip.Prefix {
	bits := p.ipv6Bits
	if addr.Is4() {
		bits = p.ipv4Bits
	}

	// Bits were validated with the configuration; an error only leaves the
	// zero prefix, which still works as a shared key.
	prefix, _ := addr.Prefix(bits)

	return prefix
}

// clientAddr resolves the address a request is charged to. The peer address
// is used unless the peer is trusted and forwards a valid one: X-Real-IP
// first, then the last X-Forwarded-For hop.
func (p *addressPolicy) clientAddr(r *http.Request) (netip.Addr, error) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if host == "" {
		return netip.Addr{}, errMissingClientIP
	}

	peer, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %q", errInvalidIPFormat, host)
	}

	peer = peer.Unmap()

	if !p.trusts(peer) {
		return peer, nil
	}

	forwarded := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if forwarded == "" {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			forwarded = strings.TrimSpace(hops[len(hops)-1])
		}
	}

	if forwarded == "" {
		return peer, nil
	}

	addr, err := netip.ParseAddr(forwarded)
	if err != nil {
		log.Debug().
			Str("peer", peer.String()).
			Str("forwarded", forwarded).
			Msg("Ignoring unparsable forwarded address")

		return peer, nil
	}

	return addr.Unmap(), nil
}
