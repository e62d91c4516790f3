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
)

// HealthPath is served without authentication.
const HealthPath = "/health"

type ProxyHandlerConfig struct {
	// TunnelCloseTimeout, if positive, forcibly closes a tunnel this long
	// after one of its directions finished.
	TunnelCloseTimeout time.Duration

	PromConfig
}

func DefaultProxyHandlerConfig() *ProxyHandlerConfig {
	return &ProxyHandlerConfig{
		PromConfig: PromConfig{
			PromNamespace: DefaultPromNamespace,
		},
	}
}

// Proxy is an http.Handler that authenticates requests and either
// tunnels CONNECT requests or forwards them to their destination.
// It keeps no state between requests.
type Proxy struct {
	auth    Authenticator
	tunnel  *tunnel
	forward *httpForwarder
	log     log.StructuredLogger
	metrics *httpProxyMetrics
}

// NewProxy returns a Proxy. Requests are forwarded with rt and tunnels are dialed with dial.
func NewProxy(cfg *ProxyHandlerConfig, a Authenticator, rt http.RoundTripper, dial DialContextFunc, l log.StructuredLogger) *Proxy {
	m := newHTTPProxyMetrics(cfg.PromRegistry, cfg.PromNamespace)
	return &Proxy{
		auth: a,
		tunnel: &tunnel{
			dial:         dial,
			closeTimeout: cfg.TunnelCloseTimeout,
			log:          l,
			metrics:      m,
		},
		forward: &httpForwarder{
			transport:        rt,
			credentialHeader: a.CredentialHeader(),
			log:              l,
			metrics:          m,
		},
		log:     l,
		metrics: m,
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	p.log.DebugContext(ctx, "request", "method", req.Method, "uri", req.RequestURI, "remote_addr", req.RemoteAddr)

	if req.Method == http.MethodGet && req.URL.Path == HealthPath {
		writeText(w, http.StatusOK, "OK")
		return
	}

	d := p.auth.Authenticate(req.Header)
	p.audit(ctx, req, d)
	if !d.Allow {
		d.WriteDeny(w)
		return
	}

	if req.Method == http.MethodConnect {
		p.connect(w, req)
		return
	}

	p.forward.ServeHTTP(w, req)
}

func (p *Proxy) audit(ctx context.Context, req *http.Request, d Decision) {
	p.metrics.decision(p.auth.Scheme(), d)

	args := []any{
		"scheme", p.auth.Scheme(),
		"reason", d.Reason,
		"credential", d.Fragment,
		"method", req.Method,
		"remote_addr", req.RemoteAddr,
	}
	if d.Allow {
		p.log.InfoContext(ctx, "request authenticated", args...)
	} else {
		p.log.WarnContext(ctx, "request denied", args...)
	}
}

func (p *Proxy) connect(w http.ResponseWriter, req *http.Request) {
	// net/http rewrites URI shaped CONNECT targets, the raw target is kept in RequestURI.
	raw := req.RequestURI
	if raw == "" {
		raw = req.Host
	}

	t := ResolveTunnelTarget(raw)
	if t.Fallback {
		p.log.WarnContext(req.Context(), "could not parse CONNECT target, using it verbatim",
			"target", raw, "error", t.ParseError)
	}

	p.tunnel.serve(w, req, t)
}
