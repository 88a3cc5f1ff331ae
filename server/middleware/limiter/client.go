// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"errors"
	"net/http"
	"net/netip"
)

var (
	errMissingClientIP = errors.New("missing client IP")
	errInvalidIPFormat = errors.New("invalid IP format")
)

// ClientInfo identifies the sender of one request.
//
// Instances are ephemeral and exist only for the duration of a single HTTP request lifecycle.
type ClientInfo struct {
	addr     netip.Addr
	network  netip.Prefix
	passList bool
}

// newClientInfo resolves the client's address and bucket from r using p.
func newClientInfo(p *addressPolicy, r *http.Request) (*ClientInfo, error) {
	addr, err := p.clientAddr(r)
	if err != nil {
		return nil, err
	}

	return &ClientInfo{
		addr:     addr,
		network:  p.network(addr),
		passList: p.passes(addr),
	}, nil
}
