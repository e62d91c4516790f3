// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"syscall"
)

func defaultListenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		KeepAlive: -1,
		Control: func(network, address string, c syscall.RawConn) error {
			return c.Control(enableTCPKeepAlive)
		},
	}
}

// Listen creates a listener for the provided network and address and configures OS-specific keep-alive parameters.
// See net.Listen for more information.
func Listen(network, address string) (net.Listener, error) {
	// The context cancellation does not close the listener.
	return defaultListenConfig().Listen(context.Background(), network, address)
}

// Listener is a TCP listener with optional TLS that counts connections.
// TLS handshakes are left to the connection owner so that a slow client does not block Accept.
type Listener struct {
	Name      string
	Address   string
	TLSConfig *tls.Config
	PromConfig

	ll      net.Listener
	metrics *listenerMetrics
}

// Listen starts listening on Address.
// The method should be called only once.
func (l *Listener) Listen() error {
	ll, err := Listen("tcp", l.Address)
	if err != nil {
		return err
	}
	l.ll = ll
	l.metrics = newListenerMetrics(l.PromRegistry, l.PromNamespace, l.Name)

	return nil
}

func (l *Listener) Accept() (net.Conn, error) {
	c, err := l.ll.Accept()
	if err != nil {
		l.metrics.error()
		return nil, err
	}
	l.metrics.accept()

	tc := &trackedConn{Conn: c, onClose: l.metrics.close}
	if l.TLSConfig == nil {
		return tc, nil
	}

	return tls.Server(tc, l.TLSConfig), nil
}

func (l *Listener) Addr() net.Addr {
	if l.ll == nil {
		return &net.IPAddr{}
	}
	return l.ll.Addr()
}

func (l *Listener) Close() error {
	return l.ll.Close()
}

// trackedConn calls onClose once when the connection is closed.
// The embedded Conn stays exported so that CloseWrite can be found on it.
type trackedConn struct {
	net.Conn
	once    sync.Once
	onClose func()
}

func (c *trackedConn) Close() error {
	c.once.Do(c.onClose)
	return c.Conn.Close()
}
