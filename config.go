// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml"
	"golang.org/x/net/http/httpguts"
)

const (
	// PortEnv overrides the port set in the configuration file.
	PortEnv = "PORT"

	DefaultTokenHeader = "X-Proxy-Token"
	DefaultRealm       = "Secure Proxy"
)

// ServerConfig is the [server] table of the configuration file.
type ServerConfig struct {
	Host string `toml:"host"`
	Port uint16 `toml:"port"`
}

// AuthConfig is the optional [auth] table of the configuration file.
type AuthConfig struct {
	TokenHeader string `toml:"token_header"`
	Realm       string `toml:"realm"`
}

// ProxyConfig is the proxy configuration file.
// It is loaded once at startup and must not be modified afterwards,
// all request handlers share it without synchronization.
type ProxyConfig struct {
	Server ServerConfig      `toml:"server"`
	Tokens map[string]string `toml:"tokens"`
	Users  map[string]string `toml:"users"`
	Auth   AuthConfig        `toml:"auth"`

	// PortFromEnv is set when Server.Port was taken from PortEnv.
	PortFromEnv bool `toml:"-"`
}

// LoadProxyConfig reads and validates the TOML configuration file at path.
func LoadProxyConfig(path string) (*ProxyConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := ParseProxyConfig(b)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filepath.Base(path), err)
	}

	return cfg, nil
}

// ParseProxyConfig decodes and validates a TOML document.
// Defaults are applied for the optional [auth] table.
func ParseProxyConfig(b []byte) (*ProxyConfig, error) {
	cfg := new(ProxyConfig)
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenHeader == "" {
		cfg.Auth.TokenHeader = DefaultTokenHeader
	}
	if cfg.Auth.Realm == "" {
		cfg.Auth.Realm = DefaultRealm
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// OverridePort sets Server.Port from the value of PortEnv.
// Values that do not parse as a port number are ignored, the returned error
// describes why, so that the caller can log it.
func (c *ProxyConfig) OverridePort(lookup func(string) (string, bool)) error {
	v, ok := lookup(PortEnv)
	if !ok {
		return nil
	}
	p, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return fmt.Errorf("ignoring %s=%q: %w", PortEnv, v, err)
	}
	c.Server.Port = uint16(p)
	c.PortFromEnv = true
	return nil
}

// Scheme returns the authentication scheme selected by the configuration.
func (c *ProxyConfig) Scheme() AuthScheme {
	if len(c.Users) > 0 {
		return BasicScheme
	}
	return TokenScheme
}

func (c *ProxyConfig) Validate() error {
	switch {
	case len(c.Tokens) > 0 && len(c.Users) > 0:
		return errors.New("tokens and users are mutually exclusive, configure exactly one")
	case len(c.Tokens) == 0 && len(c.Users) == 0:
		return errors.New("no credentials configured, set either tokens or users")
	}
	for name, pass := range c.Users {
		if name == "" {
			return errors.New("users: username cannot be empty")
		}
		if pass == "" {
			return fmt.Errorf("users: password for %q cannot be empty", name)
		}
	}
	for name, tok := range c.Tokens {
		if tok == "" {
			return fmt.Errorf("tokens: token for %q cannot be empty", name)
		}
	}
	if c.Auth.TokenHeader != "" && !httpguts.ValidHeaderFieldName(c.Auth.TokenHeader) {
		return fmt.Errorf("auth: invalid token header name %q", c.Auth.TokenHeader)
	}

	return nil
}

// ListenAddress returns the host:port address to listen on.
// The host must be empty or a literal IP address.
func (c *ProxyConfig) ListenAddress() (string, error) {
	addr := net.JoinHostPort(c.Server.Host, strconv.Itoa(int(c.Server.Port)))
	if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
		return "", fmt.Errorf("invalid server address %q: %w", addr, err)
	}
	if c.Server.Host != "" && net.ParseIP(c.Server.Host) == nil {
		return "", fmt.Errorf("invalid server address %q: host must be an IP address", addr)
	}
	return addr, nil
}

type describedConfig struct {
	Server ServerConfig `toml:"server"`
	Auth   AuthConfig   `toml:"auth"`
	Scheme string       `toml:"scheme"`
	Names  []string     `toml:"names"`
}

// Describe renders the configuration as TOML with credential values left out.
func (c *ProxyConfig) Describe() string {
	d := describedConfig{
		Server: c.Server,
		Auth:   c.Auth,
		Scheme: c.Scheme().String(),
		Names:  NewCredentialStore(c).Names(),
	}
	b, err := toml.Marshal(d)
	if err != nil {
		return fmt.Sprintf("# %s", err)
	}
	return string(b)
}

// OpenFileParser returns a parser that calls os.OpenFile.
// If dirPerm is set it will create the directory if it does not exist.
// For empty path the parser returns nil file and nil error.
func OpenFileParser(flag int, perm, dirPerm os.FileMode) func(val string) (*os.File, error) {
	return func(val string) (*os.File, error) {
		if val == "" {
			return nil, nil
		}

		if dirPerm != 0 {
			if err := os.MkdirAll(filepath.Dir(val), dirPerm); err != nil {
				return nil, err
			}
		}
		return os.OpenFile(val, flag, perm)
	}
}
