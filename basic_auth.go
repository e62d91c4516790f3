// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

const (
	ProxyAuthorizationHeader = "Proxy-Authorization"

	proxyAuthRequiredBody = "Proxy authentication required"
)

// BasicAuthenticator admits requests with valid Basic credentials in the Proxy-Authorization header.
//
// See https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/Proxy-Authorization
type BasicAuthenticator struct {
	store *CredentialStore
	realm string
}

func NewBasicAuthenticator(store *CredentialStore, realm string) *BasicAuthenticator {
	if realm == "" {
		realm = DefaultRealm
	}
	return &BasicAuthenticator{store: store, realm: realm}
}

func (a *BasicAuthenticator) Scheme() AuthScheme {
	return BasicScheme
}

func (a *BasicAuthenticator) CredentialHeader() string {
	return ProxyAuthorizationHeader
}

func (a *BasicAuthenticator) Authenticate(h http.Header) Decision {
	auth := h.Get(ProxyAuthorizationHeader)
	if auth == "" {
		return a.deny(reasonMissing, "")
	}
	user, pass, reason := parseBasicAuth(auth)
	if reason != "" {
		return a.deny(reason, "")
	}
	if !a.store.Match(user, pass) {
		return a.deny(reasonMismatch, user)
	}

	return Decision{
		Allow:    true,
		Reason:   reasonOK,
		Fragment: user,
	}
}

func (a *BasicAuthenticator) deny(reason, fragment string) Decision {
	return Decision{
		Reason:    reason,
		Fragment:  fragment,
		Status:    http.StatusProxyAuthRequired,
		Body:      proxyAuthRequiredBody,
		Challenge: fmt.Sprintf("Basic realm=%q", a.realm),
	}
}

// parseBasicAuth parses an HTTP Basic Authentication string.
// Unlike net/http the scheme is matched case-sensitively and the decoded
// credentials must contain exactly one colon.
// "Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==" returns ("Aladdin", "open sesame", "").
func parseBasicAuth(auth string) (username, password, reason string) {
	const prefix = "Basic "
	if !strings.HasPrefix(auth, prefix) {
		return "", "", reasonMalformed
	}
	c, err := base64.StdEncoding.DecodeString(auth[len(prefix):])
	if err != nil {
		return "", "", reasonMalformed
	}
	if !utf8.Valid(c) {
		return "", "", reasonInvalidText
	}
	cs := string(c)
	if strings.Count(cs, ":") != 1 {
		return "", "", reasonMalformed
	}
	username, password, _ = strings.Cut(cs, ":")
	return username, password, ""
}

// SetProxyBasicAuth sets the Proxy-Authorization header to use HTTP
// Basic Authentication with the provided username and password.
func SetProxyBasicAuth(h http.Header, username, password string) {
	h.Set(ProxyAuthorizationHeader, "Basic "+basicAuth(username, password))
}

// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
