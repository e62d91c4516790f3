// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
package warden

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestErrorLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "dns not found",
			err:  &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true},
			want: "dns_not_found",
		},
		{
			name: "dns",
			err:  fmt.Errorf("wrapped: %w", &net.DNSError{Err: "server misbehaving", Name: "example.com"}),
			want: "dns",
		},
		{
			name: "timeout",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded},
			want: "timeout",
		},
		{
			name: "dial",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
			want: "net_dial",
		},
		{
			name: "read",
			err:  &net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")},
			want: "net_read",
		},
		{
			name: "tls record header",
			err:  tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"},
			want: "unexpected_error",
		},
		{
			name: "tls record header pointer",
			err:  &tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"},
			want: "tls_record_header",
		},
		{
			name: "tls certificate",
			err:  &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}},
			want: "tls_certificate",
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: "unexpected_error",
		},
	}

	for i := range tests {
		tc := tests[i]
		t.Run(tc.name, func(t *testing.T) {
			if got := errorLabel(tc.err); got != tc.want {
				t.Fatalf("errorLabel(%v): got %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestWriteProxyError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeProxyError(rec, errors.New("dial tcp 10.0.0.1:80: i/o timeout"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if got := rec.Header().Get(ErrorHeader); got != "dial tcp 10.0.0.1:80: i/o timeout" {
		t.Fatalf("%s: got %q", ErrorHeader, got)
	}
	if got := rec.Body.String(); got != "Proxy error: dial tcp 10.0.0.1:80: i/o timeout" {
		t.Fatalf("body: got %q", got)
	}
}
