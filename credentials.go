// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"crypto/subtle"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AuthScheme identifies the credential scheme a deployment accepts.
type AuthScheme string

const (
	TokenScheme AuthScheme = "token"
	BasicScheme AuthScheme = "basic"
)

func (s AuthScheme) String() string {
	return string(s)
}

// CredentialStore holds the credentials accepted by the proxy.
// It is built once at startup and is safe for concurrent use because it is never modified.
type CredentialStore struct {
	scheme  AuthScheme
	entries map[string]string
}

// NewTokenStore returns a store for the token scheme, tokens maps a name to a token.
func NewTokenStore(tokens map[string]string) *CredentialStore {
	return &CredentialStore{
		scheme:  TokenScheme,
		entries: maps.Clone(tokens),
	}
}

// NewUserStore returns a store for the basic scheme, users maps a username to a password.
func NewUserStore(users map[string]string) *CredentialStore {
	return &CredentialStore{
		scheme:  BasicScheme,
		entries: maps.Clone(users),
	}
}

// NewCredentialStore returns the store selected by the configuration.
func NewCredentialStore(cfg *ProxyConfig) *CredentialStore {
	if cfg.Scheme() == BasicScheme {
		return NewUserStore(cfg.Users)
	}
	return NewTokenStore(cfg.Tokens)
}

func (s *CredentialStore) Scheme() AuthScheme {
	return s.scheme
}

func (s *CredentialStore) Len() int {
	return len(s.entries)
}

// Names returns the sorted token names or usernames.
func (s *CredentialStore) Names() []string {
	names := maps.Keys(s.entries)
	slices.Sort(names)
	return names
}

// MatchAny reports whether v equals any secret in the store.
// All entries are compared so that the time taken does not depend on which entry matched.
func (s *CredentialStore) MatchAny(v string) bool {
	found := 0
	for _, secret := range s.entries {
		found |= subtle.ConstantTimeCompare([]byte(secret), []byte(v))
	}
	return found == 1
}

// Match reports whether name exists in the store and its secret equals v.
func (s *CredentialStore) Match(name, v string) bool {
	secret, ok := s.entries[name]
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(v)) == 1
}
