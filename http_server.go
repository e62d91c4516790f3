// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saucelabs/warden/log"
	"go.uber.org/multierr"
)

type Scheme string

const (
	HTTPScheme  Scheme = "http"
	HTTPSScheme Scheme = "https"
)

func (s Scheme) String() string {
	return string(s)
}

type HTTPServerConfig struct {
	Name     string
	Protocol Scheme
	Addr     string
	TLSServerConfig

	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	// It also bounds the TLS handshake.
	ReadHeaderTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration

	// ShutdownTimeout bounds the graceful shutdown, zero means wait for all requests to finish.
	ShutdownTimeout time.Duration

	PromConfig
}

func DefaultHTTPServerConfig() *HTTPServerConfig {
	return &HTTPServerConfig{
		Name:              "proxy",
		Protocol:          HTTPScheme,
		Addr:              "0.0.0.0:8080",
		ReadHeaderTimeout: 1 * time.Minute,
		IdleTimeout:       1 * time.Hour,
		ShutdownTimeout:   30 * time.Second,
		PromConfig: PromConfig{
			PromNamespace: DefaultPromNamespace,
		},
	}
}

func (c *HTTPServerConfig) Validate() error {
	if c.Protocol != HTTPScheme && c.Protocol != HTTPSScheme {
		return fmt.Errorf("unsupported protocol: %s", c.Protocol)
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", c.Addr, err)
	}
	return nil
}

// HTTPServer serves a handler over HTTP or HTTPS.
// The listener is bound when the server is created.
type HTTPServer struct {
	config   HTTPServerConfig
	log      log.Logger
	srv      *http.Server
	listener *Listener
	serving  atomic.Bool
}

// NewHTTPServer binds the listener and returns a server ready to Run.
// It is the caller's responsibility to call Close on the returned server.
func NewHTTPServer(cfg *HTTPServerConfig, h http.Handler, log log.Logger) (*HTTPServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hs := &HTTPServer{
		config: *cfg,
		log:    log,
		srv: &http.Server{
			Handler:           h,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
		listener: &Listener{
			Name:       cfg.Name,
			Address:    cfg.Addr,
			PromConfig: cfg.PromConfig,
		},
	}

	if hs.config.Protocol == HTTPSScheme {
		if err := hs.configureHTTPS(); err != nil {
			return nil, err
		}
	}

	if err := hs.listener.Listen(); err != nil {
		return nil, fmt.Errorf("failed to open listener on address %s: %w", cfg.Addr, err)
	}

	hs.log.Infof("%s server listen address=%s protocol=%s", hs.config.Name, hs.listener.Addr(), hs.config.Protocol)

	return hs, nil
}

func (hs *HTTPServer) configureHTTPS() error {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		NextProtos: []string{"http/1.1"},
	}
	if err := hs.config.TLSServerConfig.ConfigureTLSConfig(tlsCfg); err != nil {
		return fmt.Errorf("configure TLS: %w", err)
	}

	hs.listener.TLSConfig = tlsCfg
	// CONNECT tunnels hijack the connection, which is only possible with HTTP/1.x.
	hs.srv.TLSNextProto = make(map[string]func(*http.Server, *tls.Conn, http.Handler))

	return nil
}

func (hs *HTTPServer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(1)

	// handle http shutdown on server context done
	go func() {
		defer wg.Done()

		<-ctx.Done()
		hs.serving.Store(false)
		sctx := context.Background()
		if d := hs.config.ShutdownTimeout; d > 0 {
			var cancel context.CancelFunc
			sctx, cancel = context.WithTimeout(sctx, d)
			defer cancel()
		}
		if err := hs.srv.Shutdown(sctx); err != nil {
			hs.log.Errorf("failed to shutdown %s server error=%s", hs.config.Name, err)
		}
	}()

	hs.serving.Store(true)
	err := hs.srv.Serve(hs.listener)
	hs.serving.Store(false)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	hs.log.Debugf("%s server was shutdown gracefully", hs.config.Name)

	wg.Wait()

	return nil
}

// Ready reports whether the server is serving requests.
// It is false before Run and once shutdown started.
func (hs *HTTPServer) Ready() bool {
	return hs.serving.Load()
}

// Addr returns the address the server is listening on.
func (hs *HTTPServer) Addr() string {
	return hs.listener.Addr().String()
}

func (hs *HTTPServer) Close() error {
	err := hs.srv.Close()
	if lerr := hs.listener.Close(); lerr != nil && !errors.Is(lerr, net.ErrClosed) {
		err = multierr.Append(err, lerr)
	}
	return err
}

// ParseScheme parses the server protocol name.
func ParseScheme(val string) (Scheme, error) {
	switch s := Scheme(strings.ToLower(val)); s {
	case HTTPScheme, HTTPSScheme:
		return s, nil
	default:
		return "", fmt.Errorf("unsupported protocol: %s", val)
	}
}
