// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
package warden

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testTokenAuthenticator() *TokenAuthenticator {
	return NewTokenAuthenticator(NewTokenStore(map[string]string{
		"alice": "alice-secret-token-1",
		"bob":   "bob-secret-token-22",
	}), "")
}

func testBasicAuthenticator() *BasicAuthenticator {
	return NewBasicAuthenticator(NewUserStore(map[string]string{
		"alice": "wonderland",
		"bob":   "builder",
	}), "")
}

func TestTokenAuthenticatorAuthenticate(t *testing.T) {
	tests := []struct {
		name   string
		header http.Header
		allow  bool
		reason string
		frag   string
	}{
		{
			name:   "first token",
			header: http.Header{"X-Proxy-Token": {"alice-secret-token-1"}},
			allow:  true,
			reason: reasonOK,
			frag:   "alic...en-1",
		},
		{
			name:   "second token",
			header: http.Header{"X-Proxy-Token": {"bob-secret-token-22"}},
			allow:  true,
			reason: reasonOK,
			frag:   "bob-...n-22",
		},
		{
			name:   "first value is used",
			header: http.Header{"X-Proxy-Token": {"nope", "alice-secret-token-1"}},
			reason: reasonUnknown,
			frag:   redactedFragment,
		},
		{
			name:   "missing",
			header: http.Header{},
			reason: reasonMissing,
		},
		{
			name:   "empty value",
			header: http.Header{"X-Proxy-Token": {""}},
			reason: reasonUnknown,
			frag:   redactedFragment,
		},
		{
			name:   "unknown",
			header: http.Header{"X-Proxy-Token": {"mallory-secret-token"}},
			reason: reasonUnknown,
			frag:   "mall...oken",
		},
		{
			name:   "not visible text",
			header: http.Header{"X-Proxy-Token": {"alice\x00secret"}},
			reason: reasonInvalidText,
		},
		{
			name:   "non ASCII",
			header: http.Header{"X-Proxy-Token": {"żółw"}},
			reason: reasonInvalidText,
		},
		{
			name:   "wrong header",
			header: http.Header{"Proxy-Authorization": {"alice-secret-token-1"}},
			reason: reasonMissing,
		},
	}

	a := testTokenAuthenticator()
	for i := range tests {
		tc := tests[i]
		t.Run(tc.name, func(t *testing.T) {
			d := a.Authenticate(tc.header)
			if d.Allow != tc.allow {
				t.Fatalf("Allow: got %v, want %v", d.Allow, tc.allow)
			}
			if d.Reason != tc.reason {
				t.Errorf("Reason: got %q, want %q", d.Reason, tc.reason)
			}
			if d.Fragment != tc.frag {
				t.Errorf("Fragment: got %q, want %q", d.Fragment, tc.frag)
			}
			if !d.Allow {
				if d.Status != http.StatusForbidden {
					t.Errorf("Status: got %d, want %d", d.Status, http.StatusForbidden)
				}
				if d.Challenge != "" {
					t.Errorf("Challenge: got %q, want none", d.Challenge)
				}
			}
		})
	}
}

func TestTokenAuthenticatorCustomHeader(t *testing.T) {
	a := NewTokenAuthenticator(NewTokenStore(map[string]string{"ci": "ci-token"}), "X-Api-Key")
	if got := a.CredentialHeader(); got != "X-Api-Key" {
		t.Fatalf("CredentialHeader: got %q", got)
	}
	if d := a.Authenticate(http.Header{"X-Api-Key": {"ci-token"}}); !d.Allow {
		t.Fatalf("expected allow, got %+v", d)
	}
	if d := a.Authenticate(http.Header{"X-Proxy-Token": {"ci-token"}}); d.Allow {
		t.Fatal("expected deny for the default header")
	}
}

func TestBasicAuthenticatorAuthenticate(t *testing.T) {
	tests := []struct {
		name   string
		auth   []string
		allow  bool
		reason string
		frag   string
	}{
		{
			name:   "valid",
			auth:   []string{"Basic " + basicAuth("alice", "wonderland")},
			allow:  true,
			reason: reasonOK,
			frag:   "alice",
		},
		{
			name:   "password of another user",
			auth:   []string{"Basic " + basicAuth("alice", "builder")},
			reason: reasonMismatch,
			frag:   "alice",
		},
		{
			name:   "unknown user",
			auth:   []string{"Basic " + basicAuth("mallory", "wonderland")},
			reason: reasonMismatch,
			frag:   "mallory",
		},
		{
			name:   "missing",
			reason: reasonMissing,
		},
		{
			name:   "lower case scheme",
			auth:   []string{"basic " + basicAuth("alice", "wonderland")},
			reason: reasonMalformed,
		},
		{
			name:   "bearer",
			auth:   []string{"Bearer abc"},
			reason: reasonMalformed,
		},
		{
			name:   "bad base64",
			auth:   []string{"Basic !!!"},
			reason: reasonMalformed,
		},
		{
			name:   "no colon",
			auth:   []string{"Basic YWxpY2U="},
			reason: reasonMalformed,
		},
		{
			name:   "two colons",
			auth:   []string{"Basic " + basicAuth("alice", "wonder:land")},
			reason: reasonMalformed,
		},
		{
			name:   "invalid UTF-8",
			auth:   []string{"Basic /w=="},
			reason: reasonInvalidText,
		},
	}

	a := testBasicAuthenticator()
	for i := range tests {
		tc := tests[i]
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.auth != nil {
				h[ProxyAuthorizationHeader] = tc.auth
			}
			d := a.Authenticate(h)
			if d.Allow != tc.allow {
				t.Fatalf("Allow: got %v, want %v", d.Allow, tc.allow)
			}
			if d.Reason != tc.reason {
				t.Errorf("Reason: got %q, want %q", d.Reason, tc.reason)
			}
			if d.Fragment != tc.frag {
				t.Errorf("Fragment: got %q, want %q", d.Fragment, tc.frag)
			}
			if !d.Allow {
				if d.Status != http.StatusProxyAuthRequired {
					t.Errorf("Status: got %d, want %d", d.Status, http.StatusProxyAuthRequired)
				}
				if want := `Basic realm="Secure Proxy"`; d.Challenge != want {
					t.Errorf("Challenge: got %q, want %q", d.Challenge, want)
				}
			}
		})
	}
}

func TestParseBasicAuth(t *testing.T) {
	user, pass, reason := parseBasicAuth("Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==")
	if reason != "" {
		t.Fatalf("unexpected reason %q", reason)
	}
	if user != "Aladdin" || pass != "open sesame" {
		t.Fatalf("got %q:%q", user, pass)
	}

	if _, _, reason := parseBasicAuth("Basic " + basicAuth("", "")); reason != "" {
		t.Fatalf("empty username and password: unexpected reason %q", reason)
	}
}

func TestDecisionWriteDeny(t *testing.T) {
	tests := []struct {
		name   string
		d      Decision
		status int
		header http.Header
		body   string
	}{
		{
			name:   "token",
			d:      testTokenAuthenticator().Authenticate(http.Header{}),
			status: http.StatusForbidden,
			header: http.Header{
				"Content-Type":           {"text/plain; charset=utf-8"},
				"X-Content-Type-Options": {"nosniff"},
			},
			body: "Invalid or missing token",
		},
		{
			name:   "basic",
			d:      testBasicAuthenticator().Authenticate(http.Header{}),
			status: http.StatusProxyAuthRequired,
			header: http.Header{
				"Content-Type":           {"text/plain; charset=utf-8"},
				"X-Content-Type-Options": {"nosniff"},
				"Proxy-Authenticate":     {`Basic realm="Secure Proxy"`},
			},
			body: "Proxy authentication required",
		},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.d.WriteDeny(rec)

			if rec.Code != tc.status {
				t.Errorf("status: got %d, want %d", rec.Code, tc.status)
			}
			if diff := cmp.Diff(tc.header, rec.Header()); diff != "" {
				t.Errorf("header mismatch (-want +got):\n%s", diff)
			}
			if got := rec.Body.String(); got != tc.body {
				t.Errorf("body: got %q, want %q", got, tc.body)
			}
		})
	}
}

func TestNewAuthenticatorScheme(t *testing.T) {
	cfg := AuthConfig{TokenHeader: "X-Token", Realm: "corp"}

	a := NewAuthenticator(NewTokenStore(map[string]string{"a": "b"}), cfg)
	if a.Scheme() != TokenScheme || a.CredentialHeader() != "X-Token" {
		t.Fatalf("token: got %s %s", a.Scheme(), a.CredentialHeader())
	}

	a = NewAuthenticator(NewUserStore(map[string]string{"a": "b"}), cfg)
	if a.Scheme() != BasicScheme || a.CredentialHeader() != ProxyAuthorizationHeader {
		t.Fatalf("basic: got %s %s", a.Scheme(), a.CredentialHeader())
	}
	if d := a.Authenticate(http.Header{}); d.Challenge != `Basic realm="corp"` {
		t.Fatalf("challenge: got %q", d.Challenge)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "xxxxx"},
		{"short", "xxxxx"},
		{"elevenchars", "xxxxx"},
		{"twelve-chars", "twel...hars"},
		{"alice-secret-token-1", "alic...en-1"},
	}
	for _, tc := range tests {
		if got := redact(tc.in); got != tc.want {
			t.Errorf("redact(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
