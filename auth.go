// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"net/http"
)

// Decision is the result of authenticating a request.
type Decision struct {
	Allow bool

	// Reason is a short label describing the decision, it is used in logs and metrics.
	Reason string

	// Fragment is a redacted form of the supplied credential.
	Fragment string

	// Status, Body and Challenge describe the response sent when the request is denied.
	Status    int
	Body      string
	Challenge string
}

// Authenticator decides whether a request is admitted by the proxy.
// Implementations look at the request headers only.
type Authenticator interface {
	Scheme() AuthScheme

	// CredentialHeader is the header carrying the credential.
	// It is removed from requests before they are forwarded.
	CredentialHeader() string

	Authenticate(h http.Header) Decision
}

// NewAuthenticator returns the Authenticator for the store scheme.
func NewAuthenticator(store *CredentialStore, cfg AuthConfig) Authenticator {
	if store.Scheme() == BasicScheme {
		return NewBasicAuthenticator(store, cfg.Realm)
	}
	return NewTokenAuthenticator(store, cfg.TokenHeader)
}

const (
	reasonOK          = "ok"
	reasonMissing     = "missing"
	reasonMalformed   = "malformed"
	reasonInvalidText = "invalid_text"
	reasonUnknown     = "unknown"
	reasonMismatch    = "mismatch"
)

// WriteDeny writes the deny response described by d.
func (d Decision) WriteDeny(w http.ResponseWriter) {
	if d.Challenge != "" {
		w.Header().Set("Proxy-Authenticate", d.Challenge)
	}
	writeText(w, d.Status, d.Body)
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	w.Write([]byte(body)) //nolint:errcheck // client is gone when it fails
}
