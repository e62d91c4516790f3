// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"context"
	"net/http"
	"time"

	"github.com/saucelabs/warden/log"
	"github.com/saucelabs/warden/middleware"
)

type HTTPProxyConfig struct {
	HTTPServerConfig

	// TunnelCloseTimeout, if positive, forcibly closes a tunnel this long
	// after one of its directions finished. Zero disables it.
	TunnelCloseTimeout time.Duration
}

func DefaultHTTPProxyConfig() *HTTPProxyConfig {
	return &HTTPProxyConfig{
		HTTPServerConfig: *DefaultHTTPServerConfig(),
	}
}

// HTTPProxy is the proxy server.
// In-flight requests are drained on shutdown, established tunnels are not tracked.
type HTTPProxy struct {
	*HTTPServer
	proxy *Proxy
}

// NewHTTPProxy creates the proxy handler and binds the proxy listener.
// It is the caller's responsibility to call Close on the returned server.
func NewHTTPProxy(cfg *HTTPProxyConfig, a Authenticator, rt http.RoundTripper, dial DialContextFunc, log log.FullLogger) (*HTTPProxy, error) {
	p := NewProxy(&ProxyHandlerConfig{
		TunnelCloseTimeout: cfg.TunnelCloseTimeout,
		PromConfig:         cfg.PromConfig,
	}, a, rt, dial, log)

	h := middleware.NewPrometheus(cfg.PromRegistry, cfg.PromNamespace).Wrap(p)
	hs, err := NewHTTPServer(&cfg.HTTPServerConfig, h, log)
	if err != nil {
		return nil, err
	}

	return &HTTPProxy{
		HTTPServer: hs,
		proxy:      p,
	}, nil
}

// Handler returns the proxy http.Handler.
func (hp *HTTPProxy) Handler() http.Handler {
	return hp.proxy
}

func (hp *HTTPProxy) Run(ctx context.Context) error {
	return hp.HTTPServer.Run(ctx)
}
