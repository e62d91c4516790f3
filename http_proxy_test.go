// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
package warden

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/saucelabs/warden/log/slog"
)

func startHTTPProxy(t *testing.T, cfg *HTTPProxyConfig, a Authenticator) *HTTPProxy {
	t.Helper()

	d := NewDialer(&DialConfig{
		DialTimeout: 5 * time.Second,
		PromConfig:  cfg.PromConfig,
	})
	rt := NewHTTPTransport(DefaultHTTPTransportConfig(), d)
	t.Cleanup(rt.CloseIdleConnections)

	p, err := NewHTTPProxy(cfg, a, rt, d.DialContext, slog.Debug())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- p.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := <-errc; err != nil {
			t.Errorf("Run: %v", err)
		}
		p.Close()
	})

	return p
}

func TestHTTPProxyHTTPS(t *testing.T) {
	upstream := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "through https proxy")
	}))
	defer upstream.Close()

	r := prometheus.NewRegistry()
	cfg := DefaultHTTPProxyConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Protocol = HTTPSScheme
	cfg.PromRegistry = r

	p := startHTTPProxy(t, cfg, NewTokenAuthenticator(testTokenStore(), ""))

	proxyURL := &url.URL{Scheme: "https", Host: p.Addr()}
	tr := &http.Transport{
		Proxy:              http.ProxyURL(proxyURL),
		ProxyConnectHeader: tokenHeader(),
		TLSClientConfig:    &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed
	}
	defer tr.CloseIdleConnections()

	e := expect(t, upstream.URL, tr)
	e.GET("/").Expect().Status(http.StatusOK).Body().IsEqual("through https proxy")

	// The health endpoint is served on the proxy listener.
	htr := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed
	}
	defer htr.CloseIdleConnections()
	health := expect(t, "https://"+p.Addr(), htr)
	health.GET(HealthPath).Expect().Status(http.StatusOK).Body().IsEqual("OK")

	if n, err := testutil.GatherAndCount(r, "warden_http_requests_total"); err != nil || n == 0 {
		t.Fatalf("request metrics: got %d series, error %v", n, err)
	}
	if v := testutil.ToFloat64(p.proxy.metrics.auth.WithLabelValues("token", "allow", reasonOK)); v != 1 {
		t.Fatalf("allow decisions: got %v, want 1", v)
	}
}

func TestHTTPProxyNoHTTP2(t *testing.T) {
	cfg := DefaultHTTPProxyConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Protocol = HTTPSScheme

	p := startHTTPProxy(t, cfg, NewTokenAuthenticator(testTokenStore(), ""))

	tr := &http.Transport{
		ForceAttemptHTTP2: true,
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed
	}
	defer tr.CloseIdleConnections()

	req, err := http.NewRequest(http.MethodGet, "https://"+p.Addr()+HealthPath, http.NoBody)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.ProtoMajor != 1 {
		t.Fatalf("protocol: got %s, want HTTP/1.x", resp.Proto)
	}
}

func TestHTTPProxyInvalidConfig(t *testing.T) {
	cfg := DefaultHTTPProxyConfig()
	cfg.Protocol = "ftp"

	if _, err := NewHTTPProxy(cfg, NewTokenAuthenticator(testTokenStore(), ""), http.DefaultTransport, nil, slog.Debug()); err == nil {
		t.Fatal("expected error")
	}
}

func TestHTTPProxyReadiness(t *testing.T) {
	cfg := DefaultHTTPProxyConfig()
	cfg.Addr = "127.0.0.1:0"

	p, err := NewHTTPProxy(cfg, NewTokenAuthenticator(testTokenStore(), ""), http.DefaultTransport, nil, slog.Debug())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	api := expect(t, "http://api.local", httpexpect.NewBinder(NewAPIHandler(prometheus.NewRegistry(), p, "")))
	api.GET("/readyz").Expect().Status(http.StatusServiceUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- p.Run(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !p.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("proxy not ready")
		}
		time.Sleep(10 * time.Millisecond)
	}
	api.GET("/readyz").Expect().Status(http.StatusOK)

	cancel()
	if err := <-errc; err != nil {
		t.Fatal(err)
	}
	api.GET("/readyz").Expect().Status(http.StatusServiceUnavailable)
}
