// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	directionUpstream   = "upstream"
	directionDownstream = "downstream"
)

type httpProxyMetrics struct {
	auth          *prometheus.CounterVec
	errors        *prometheus.CounterVec
	tunnelErrors  *prometheus.CounterVec
	tunnelBytes   *prometheus.CounterVec
	tunnels       prometheus.Counter
	tunnelsActive prometheus.Gauge
}

func newHTTPProxyMetrics(r prometheus.Registerer, namespace string) *httpProxyMetrics {
	if r == nil {
		r = prometheus.NewRegistry() // This registry will be discarded.
	}
	f := promauto.With(r)

	return &httpProxyMetrics{
		auth: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "auth_decisions_total",
			Namespace: namespace,
			Help:      "Number of authentication decisions",
		}, []string{"scheme", "outcome", "reason"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "proxy_errors_total",
			Namespace: namespace,
			Help:      "Number of proxy errors",
		}, []string{"reason"}),
		tunnelErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "tunnel_errors_total",
			Namespace: namespace,
			Help:      "Number of tunnels that failed, by the stage of the failure",
		}, []string{"stage"}),
		tunnelBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name:      "tunnel_bytes_total",
			Namespace: namespace,
			Help:      "Number of bytes relayed through tunnels",
		}, []string{"direction"}),
		tunnels: f.NewCounter(prometheus.CounterOpts{
			Name:      "tunnels_total",
			Namespace: namespace,
			Help:      "Number of established tunnels",
		}),
		tunnelsActive: f.NewGauge(prometheus.GaugeOpts{
			Name:      "tunnels_active",
			Namespace: namespace,
			Help:      "Number of tunnels currently relaying",
		}),
	}
}

func (m *httpProxyMetrics) decision(scheme AuthScheme, d Decision) {
	outcome := "deny"
	if d.Allow {
		outcome = "allow"
	}
	m.auth.WithLabelValues(scheme.String(), outcome, d.Reason).Inc()
}

func (m *httpProxyMetrics) error(reason string) {
	m.errors.WithLabelValues(reason).Inc()
}

func (m *httpProxyMetrics) tunnelError(stage string) {
	m.tunnelErrors.WithLabelValues(stage).Inc()
}

func (m *httpProxyMetrics) tunnelOpen() {
	m.tunnels.Inc()
	m.tunnelsActive.Inc()
}

func (m *httpProxyMetrics) tunnelClose(up, down int64) {
	m.tunnelsActive.Dec()
	m.tunnelBytes.WithLabelValues(directionUpstream).Add(float64(up))
	m.tunnelBytes.WithLabelValues(directionDownstream).Add(float64(down))
}
