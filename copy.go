// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package warden

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/saucelabs/warden/log"
)

func drainBuffer(w io.Writer, r *bufio.Reader) (int64, error) {
	n := r.Buffered()
	if n == 0 {
		return 0, nil
	}
	rbuf, err := r.Peek(n)
	if err != nil {
		return 0, err
	}
	m, err := w.Write(rbuf)
	return int64(m), err
}

var copyBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 32*1024)
		return &b
	},
}

// bicopy runs the copiers concurrently and returns when all of them finished.
// A copier that reaches EOF closes the write side of its destination and the other copiers continue.
// A copier that fails closes all destinations so that the other copiers return.
// If closeTimeout is positive, all copiers are forcibly closed once
// the first one finished and the timeout elapsed.
func bicopy(ctx context.Context, l log.StructuredLogger, closeTimeout time.Duration, cc ...*copier) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var once sync.Once
	abort := func() {
		once.Do(func() {
			for i := range cc {
				cc[i].close(ctx, l)
			}
		})
	}

	donec := make(chan struct{}, len(cc))
	for i := range cc {
		go cc[i].copy(ctx, l, abort, donec)
	}

	for i := range cc {
		<-donec
		if i == 0 && closeTimeout > 0 {
			go closeAfter(ctx, l, closeTimeout, abort)
		}
	}
}

func closeAfter(ctx context.Context, l log.StructuredLogger, d time.Duration, abort func()) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return
	case <-t.C:
		l.InfoContext(ctx, "forcibly closing tunnel after close timeout", "timeout", d)
	}
	abort()
}

type copier struct {
	name string
	dst  io.Writer
	src  io.Reader

	// n is the number of bytes copied, it is valid after copy returns.
	n int64
	// err is the copy error, it is nil on EOF and after a forced close.
	err error
}

func (c *copier) copy(ctx context.Context, l log.StructuredLogger, abort func(), donec chan<- struct{}) {
	defer func() { donec <- struct{}{} }()

	bufp := copyBufPool.Get().(*[]byte) //nolint:forcetypeassert // It's *[]byte.
	buf := *bufp
	defer copyBufPool.Put(bufp)

	n, err := io.CopyBuffer(c.dst, c.src, buf)
	c.n += n

	switch {
	case err == nil:
		c.closeWriter(ctx, l)
		l.DebugContext(ctx, "tunnel finished copying", "direction", c.name, "bytes", c.n)
	case errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe):
		l.DebugContext(ctx, "tunnel closed while copying", "direction", c.name, "bytes", c.n)
	default:
		c.err = err
		l.ErrorContext(ctx, "failed to copy tunnel, closing", "direction", c.name, "bytes", c.n, "error", err)
		abort()
	}
}

func (c *copier) closeWriter(ctx context.Context, l log.StructuredLogger) {
	var closeErr error
	if cw, ok := asCloseWriter(c.dst); ok {
		closeErr = cw.CloseWrite()
	} else if pw, ok := c.dst.(*io.PipeWriter); ok {
		closeErr = pw.Close()
	} else {
		l.ErrorContext(ctx, "cannot close write side of tunnel", "direction", c.name, "type", fmt.Sprintf("%T", c.dst))
	}
	if closeErr != nil && !isClosedConnError(closeErr) {
		l.InfoContext(ctx, "failed to close write side of tunnel", "direction", c.name, "error", closeErr)
	}
}

func (c *copier) close(ctx context.Context, l log.StructuredLogger) {
	cc, ok := c.dst.(io.Closer)
	if !ok {
		l.ErrorContext(ctx, "cannot close tunnel", "direction", c.name, "type", fmt.Sprintf("%T", c.dst))
		return
	}
	if err := cc.Close(); err != nil && !isClosedConnError(err) {
		l.InfoContext(ctx, "failed to close tunnel", "direction", c.name, "error", err)
	}
}

// isClosedConnError reports whether err is an error from use of a closed network connection.
func isClosedConnError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	return strings.Contains(err.Error(), "use of closed network connection")
}
