// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusWrap(t *testing.T) {
	h := http.NewServeMux()
	h.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	h.HandleFunc("/denied", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	r := prometheus.NewPedanticRegistry()
	p := NewPrometheus(r, "test")
	s := p.Wrap(h)

	var wg sync.WaitGroup
	for range [50]struct{}{} {
		for _, path := range []string{"/ok", "/denied"} {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
				s.ServeHTTP(httptest.NewRecorder(), req)
			}(path)
		}
	}
	wg.Wait()

	if got := testutil.ToFloat64(p.requestsTotal.WithLabelValues("200", http.MethodGet)); got != 50 {
		t.Errorf("200 requests = %v, want 50", got)
	}
	if got := testutil.ToFloat64(p.requestsTotal.WithLabelValues("403", http.MethodGet)); got != 50 {
		t.Errorf("403 requests = %v, want 50", got)
	}
	if got := testutil.ToFloat64(p.requestsInFlight.WithLabelValues(http.MethodGet)); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}

	const help = `
# HELP test_http_requests_total Total number of HTTP requests processed.
# TYPE test_http_requests_total counter
test_http_requests_total{code="200",method="GET"} 50
test_http_requests_total{code="403",method="GET"} 50
`
	if err := testutil.GatherAndCompare(r, strings.NewReader(help), "test_http_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestPrometheusWrapHijack(t *testing.T) {
	p := NewPrometheus(nil, "test")
	h := p.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, _, err := http.NewResponseController(w).Hijack()
		if err != nil {
			t.Errorf("hijack through delegator: %v", err)
			return
		}
		conn.Close()
	}))

	srv := httptest.NewServer(h)
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.Listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("CONNECT example.com:443 HTTP/1.1\r\nHost: example.com:443\r\n\r\n")); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 1)
	conn.Read(buf) //nolint:errcheck // waits for the server to close the connection
}
