// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"net/http"
)

const invalidTokenBody = "Invalid or missing token"

// TokenAuthenticator admits requests carrying a known token in a custom header.
// The name associated with a token is not relevant, any token in the store is accepted.
type TokenAuthenticator struct {
	store  *CredentialStore
	header string
}

func NewTokenAuthenticator(store *CredentialStore, header string) *TokenAuthenticator {
	if header == "" {
		header = DefaultTokenHeader
	}
	return &TokenAuthenticator{store: store, header: header}
}

func (a *TokenAuthenticator) Scheme() AuthScheme {
	return TokenScheme
}

func (a *TokenAuthenticator) CredentialHeader() string {
	return a.header
}

func (a *TokenAuthenticator) Authenticate(h http.Header) Decision {
	vv, ok := h[http.CanonicalHeaderKey(a.header)]
	if !ok || len(vv) == 0 {
		return a.deny(reasonMissing, "")
	}
	tok := vv[0]
	if !isVisibleText(tok) {
		return a.deny(reasonInvalidText, "")
	}
	if !a.store.MatchAny(tok) {
		return a.deny(reasonUnknown, redact(tok))
	}

	return Decision{
		Allow:    true,
		Reason:   reasonOK,
		Fragment: redact(tok),
	}
}

func (a *TokenAuthenticator) deny(reason, fragment string) Decision {
	return Decision{
		Reason:   reason,
		Fragment: fragment,
		Status:   http.StatusForbidden,
		Body:     invalidTokenBody,
	}
}

// isVisibleText reports whether s consists of visible ASCII characters, spaces and tabs only.
func isVisibleText(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\t' && (c < ' ' || c > '~') {
			return false
		}
	}
	return true
}
