// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// DefaultTunnelPort is used when a CONNECT target does not specify a port.
const DefaultTunnelPort = "443"

// TunnelTarget is the resolved destination of a CONNECT request.
type TunnelTarget struct {
	// Addr is the host:port dial address.
	Addr string

	// Fallback is set when the target looked like a URI but could not be parsed,
	// in that case Addr is built from the raw target string.
	Fallback bool

	// ParseError is the reason for the fallback.
	ParseError error
}

// ResolveTunnelTarget returns the dial address for a CONNECT request target.
// The target may be an authority (host or host:port) or a URI (scheme://host:port/path),
// when no port is given DefaultTunnelPort is used.
// The host is not validated, an unusable address results in a dial error.
func ResolveTunnelTarget(target string) TunnelTarget {
	var t TunnelTarget

	authority := target
	if strings.Contains(target, "://") {
		u, err := url.Parse(target)
		switch {
		case err != nil:
			t.Fallback, t.ParseError = true, err
		case u.Host == "":
			t.Fallback, t.ParseError = true, errors.New("missing host")
		default:
			authority = u.Host
		}
	}

	if !hasPort(authority) {
		authority += ":" + DefaultTunnelPort
	}
	t.Addr = authority

	return t
}

// hasPort reports whether hostport ends with a port delimiter.
// A bracketed IPv6 literal without a port, like [::1], has no port.
func hasPort(hostport string) bool {
	i := strings.LastIndexByte(hostport, ':')
	if i < 0 {
		return false
	}
	return !strings.Contains(hostport[i:], "]")
}

// Host returns the host part of Addr.
// For fallback targets that do not split it returns Addr.
func (t TunnelTarget) Host() string {
	host, _, err := net.SplitHostPort(t.Addr)
	if err != nil {
		return t.Addr
	}
	return host
}

// Port returns the port part of Addr or DefaultTunnelPort.
func (t TunnelTarget) Port() string {
	_, port, err := net.SplitHostPort(t.Addr)
	if err != nil {
		return DefaultTunnelPort
	}
	return port
}

func (t TunnelTarget) String() string {
	return t.Addr
}
