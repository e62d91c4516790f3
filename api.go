// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saucelabs/warden/internal/version"
	"github.com/saucelabs/warden/utils/httphandler"
)

type server interface {
	Ready() bool
}

// APIHandler serves API endpoints.
// It provides health and readiness endpoints, prometheus metrics, the effective configuration and pprof debug endpoints.
type APIHandler struct {
	mux    *http.ServeMux
	server server
}

func NewAPIHandler(r prometheus.Gatherer, s server, config string) *APIHandler {
	m := http.NewServeMux()
	a := &APIHandler{
		mux:    m,
		server: s,
	}
	m.HandleFunc("/metrics", promhttp.HandlerFor(r, promhttp.HandlerOpts{}).ServeHTTP)
	m.HandleFunc("/healthz", a.healthz)
	m.HandleFunc("/readyz", a.readyz)
	m.Handle("/configz", httphandler.SendFileString("text/plain; charset=utf-8", config))
	m.Handle("/version", httphandler.Version(version.Version, version.Time, version.Commit))

	m.HandleFunc("/debug/pprof/", pprof.Index)
	m.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	m.HandleFunc("/debug/pprof/profile", pprof.Profile)
	m.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	m.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return a
}

func (h *APIHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "OK")
}

func (h *APIHandler) readyz(w http.ResponseWriter, _ *http.Request) {
	if h.server != nil && h.server.Ready() {
		writeText(w, http.StatusOK, "OK")
	} else {
		writeText(w, http.StatusServiceUnavailable, "Service Unavailable")
	}
}

func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}
