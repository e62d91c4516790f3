// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// oldFileCloseDelay gives in-flight writes to the previous file time to finish.
const oldFileCloseDelay = 5 * time.Second

// RotatableFile is a log file that can be reopened under the same name,
// for use with logrotate. It reopens itself when the process receives SIGHUP.
type RotatableFile struct {
	f     atomic.Pointer[os.File]
	sigc  chan os.Signal
	stopc chan struct{}
	once  sync.Once
}

func NewRotatableFile(f *os.File) *RotatableFile {
	w := &RotatableFile{
		sigc:  make(chan os.Signal, 1),
		stopc: make(chan struct{}),
	}
	w.f.Store(f)

	signal.Notify(w.sigc, syscall.SIGHUP)
	go w.reopenLoop()

	return w
}

func (w *RotatableFile) Write(p []byte) (int, error) {
	return w.f.Load().Write(p)
}

// Reopen opens the file by name and swaps it in.
// The previous file is closed after a short delay.
func (w *RotatableFile) Reopen() error {
	name := w.f.Load().Name()
	nf, err := os.OpenFile(name, DefaultFileFlags, DefaultFileMode)
	if err != nil {
		return fmt.Errorf("reopen %s: %w", name, err)
	}

	old := w.f.Swap(nf)
	time.AfterFunc(oldFileCloseDelay, func() {
		if err := old.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close rotated log file: %v\n", err)
		}
	})

	return nil
}

func (w *RotatableFile) Close() error {
	w.once.Do(func() {
		signal.Stop(w.sigc)
		close(w.stopc)
	})
	return w.f.Load().Close()
}

func (w *RotatableFile) reopenLoop() {
	for {
		select {
		case <-w.stopc:
			return
		case <-w.sigc:
			if err := w.Reopen(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to rotate log file: %v\n", err)
			}
		}
	}
}
