// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/saucelabs/warden/log"
)

const (
	stageHijack  = "hijack"
	stageUpgrade = "upgrade"
	stageDial    = "dial"
	stageRelay   = "relay"
)

var connectionEstablished = []byte("HTTP/1.1 200 OK\r\n\r\n")

// DialContextFunc dials a network connection, it matches net.Dialer.DialContext.
type DialContextFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// tunnel establishes CONNECT tunnels.
//
// A tunnel goes through the following states:
// requested, upgraded, connected, relaying and closed.
// Errors after the upgrade cannot be reported to the client,
// they are logged and the client connection is closed.
type tunnel struct {
	dial         DialContextFunc
	closeTimeout time.Duration
	log          log.StructuredLogger
	metrics      *httpProxyMetrics

	lastID atomic.Uint64
}

// tunnelSession is a single tunnel, it owns both connections.
type tunnelSession struct {
	target TunnelTarget
	client net.Conn
	br     *bufio.Reader
	log    log.StructuredLogger
}

// serve upgrades the client connection and relays it to the target in a new goroutine.
// It returns once the relay goroutine is started or the upgrade failed.
func (t *tunnel) serve(w http.ResponseWriter, req *http.Request, target TunnelTarget) {
	id := t.lastID.Add(1)
	l := t.log.With("tunnel_id", id, "target", target.Addr)
	ctx := req.Context()

	conn, brw, err := http.NewResponseController(w).Hijack()
	if err != nil {
		l.ErrorContext(ctx, "tunnel hijack failed", "error", err)
		t.metrics.tunnelError(stageHijack)
		return
	}

	if _, err := brw.Write(connectionEstablished); err == nil {
		err = brw.Flush()
	}
	if err != nil {
		l.ErrorContext(ctx, "tunnel upgrade failed", "error", err)
		t.metrics.tunnelError(stageUpgrade)
		conn.Close()
		return
	}
	l.DebugContext(ctx, "tunnel upgraded")

	s := &tunnelSession{
		target: target,
		client: conn,
		br:     brw.Reader,
		log:    l,
	}

	// The request context is cancelled when the handler returns.
	go t.relay(context.WithoutCancel(ctx), s)
}

func (t *tunnel) relay(ctx context.Context, s *tunnelSession) {
	defer s.client.Close()

	out, err := t.dial(ctx, "tcp", s.target.Addr)
	if err != nil {
		s.log.ErrorContext(ctx, "tunnel dial failed", "error", err)
		t.metrics.tunnelError(stageDial)
		return
	}
	defer out.Close()
	s.log.DebugContext(ctx, "tunnel connected", "remote_addr", out.RemoteAddr())

	// The client may have sent data before receiving the 200 response.
	drained, err := drainBuffer(out, s.br)
	if err != nil {
		s.log.ErrorContext(ctx, "tunnel failed to drain client buffer", "error", err)
		t.metrics.tunnelError(stageDial)
		return
	}

	up := &copier{name: directionUpstream, dst: out, src: s.client, n: drained}
	down := &copier{name: directionDownstream, dst: s.client, src: out}

	t.metrics.tunnelOpen()
	s.log.DebugContext(ctx, "tunnel relaying")
	bicopy(ctx, s.log, t.closeTimeout, up, down)
	if up.err != nil || down.err != nil {
		t.metrics.tunnelError(stageRelay)
	}
	t.metrics.tunnelClose(up.n, down.n)

	s.log.DebugContext(ctx, "tunnel closed", "upstream_bytes", up.n, "downstream_bytes", down.n)
}
