// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
// Package runctx runs long-lived components until one fails or the process is signaled.
package runctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// DefaultNotifySignals specifies signals that would cause the context to be canceled.
var DefaultNotifySignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
}

// Runner is a component that runs until the context is canceled, like a server.
type Runner interface {
	Run(ctx context.Context) error
}

// Group is a collection of functions that would be run concurrently.
// The context passed to each function is canceled when any of the signals in NotifySignals is received,
// or when any of the functions returns.
type Group struct {
	NotifySignals []os.Signal

	// OnSignal, if set, is called with the signal that started the shutdown.
	OnSignal func(sig os.Signal)

	funcs []func(ctx context.Context) error
}

func NewGroup(fn ...func(ctx context.Context) error) *Group {
	return &Group{
		funcs: fn,
	}
}

func (g *Group) Add(fn func(ctx context.Context) error) {
	g.funcs = append(g.funcs, fn)
}

func (g *Group) AddRunner(r ...Runner) {
	for _, v := range r {
		g.Add(v.Run)
	}
}

func (g *Group) Run() error {
	return g.RunContext(context.Background())
}

// RunContext runs all functions and waits for them to return.
// It returns the first non-nil error, a shutdown caused by a signal is not an error.
func (g *Group) RunContext(ctx context.Context) error {
	sigs := g.NotifySignals
	if len(sigs) == 0 {
		sigs = DefaultNotifySignals
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, sigs...)
	defer signal.Stop(sigc)

	var eg *errgroup.Group
	eg, ctx = errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg.Go(func() error {
		select {
		case sig := <-sigc:
			if g.OnSignal != nil {
				g.OnSignal(sig)
			}
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	for _, fn := range g.funcs {
		fn := fn
		eg.Go(func() error {
			err := fn(ctx)
			cancel()
			return err
		})
	}

	return eg.Wait()
}
