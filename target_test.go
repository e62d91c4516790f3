// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
package warden

import (
	"testing"
)

func TestResolveTunnelTarget(t *testing.T) {
	tests := []struct {
		target   string
		addr     string
		host     string
		port     string
		fallback bool
	}{
		{target: "example.com", addr: "example.com:443", host: "example.com", port: "443"},
		{target: "example.com:8443", addr: "example.com:8443", host: "example.com", port: "8443"},
		{target: "https://example.com:8443/x", addr: "example.com:8443", host: "example.com", port: "8443"},
		{target: "https://example.com/x", addr: "example.com:443", host: "example.com", port: "443"},
		{target: "10.0.0.1", addr: "10.0.0.1:443", host: "10.0.0.1", port: "443"},
		{target: "[::1]", addr: "[::1]:443", host: "::1", port: "443"},
		{target: "[::1]:22", addr: "[::1]:22", host: "::1", port: "22"},
		{target: "wss://[2001:db8::1]/chat", addr: "[2001:db8::1]:443", host: "2001:db8::1", port: "443"},
		{target: "https://exa mple.com:443/", addr: "https://exa mple.com:443/", fallback: true},
		{target: "https:///only/path", addr: "https:///only/path", fallback: true},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.target, func(t *testing.T) {
			got := ResolveTunnelTarget(tc.target)
			if got.Addr != tc.addr {
				t.Errorf("Addr: got %q, want %q", got.Addr, tc.addr)
			}
			if got.Fallback != tc.fallback {
				t.Fatalf("Fallback: got %v, want %v", got.Fallback, tc.fallback)
			}
			if tc.fallback {
				if got.ParseError == nil {
					t.Error("ParseError: got nil, want error")
				}
				return
			}
			if got.ParseError != nil {
				t.Errorf("ParseError: got %v, want nil", got.ParseError)
			}
			if got.Host() != tc.host {
				t.Errorf("Host: got %q, want %q", got.Host(), tc.host)
			}
			if got.Port() != tc.port {
				t.Errorf("Port: got %q, want %q", got.Port(), tc.port)
			}
		})
	}
}

func TestHasPort(t *testing.T) {
	tests := []struct {
		hostport string
		want     bool
	}{
		{"example.com", false},
		{"example.com:80", true},
		{"[::1]", false},
		{"[::1]:80", true},
		{"", false},
	}
	for _, tc := range tests {
		if got := hasPort(tc.hostport); got != tc.want {
			t.Errorf("hasPort(%q): got %v, want %v", tc.hostport, got, tc.want)
		}
	}
}
