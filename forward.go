// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"io"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/saucelabs/warden/log"
	"golang.org/x/net/http/httpguts"
)

// Hop-by-hop headers, see RFC 7230 section 6.1.
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// httpForwarder sends a request to its destination in a single attempt and copies the response back.
type httpForwarder struct {
	transport        http.RoundTripper
	credentialHeader string
	log              log.StructuredLogger
	metrics          *httpProxyMetrics
}

func (f *httpForwarder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	outreq := req.Clone(ctx)
	outreq.RequestURI = ""
	outreq.Close = false
	if req.ContentLength == 0 {
		outreq.Body = nil
	}
	removeHopByHopHeaders(outreq.Header)
	outreq.Header.Del(f.credentialHeader)
	// Go sets a default User-Agent when the header is missing.
	if _, ok := outreq.Header["User-Agent"]; !ok {
		outreq.Header.Set("User-Agent", "")
	}

	res, err := f.transport.RoundTrip(outreq)
	if err != nil {
		label := errorLabel(err)
		f.log.WarnContext(ctx, "forward failed", "method", req.Method, "url", req.URL.Redacted(), "reason", label, "error", err)
		f.metrics.error(label)
		writeProxyError(w, err)
		return
	}
	defer res.Body.Close()

	removeHopByHopHeaders(res.Header)
	copyHeader(w.Header(), res.Header)
	w.WriteHeader(res.StatusCode)

	bufp := copyBufPool.Get().(*[]byte) //nolint:forcetypeassert // It's *[]byte.
	defer copyBufPool.Put(bufp)

	var dst io.Writer = w
	if res.ContentLength == -1 {
		dst = flushWriter{w: w, rc: http.NewResponseController(w)}
	}
	if _, err := io.CopyBuffer(dst, res.Body, *bufp); err != nil && !isClosedConnError(err) {
		f.log.WarnContext(ctx, "failed to copy response body", "url", req.URL.Redacted(), "error", err)
	}
}

// removeHopByHopHeaders removes the hop-by-hop headers and the headers listed in Connection.
func removeHopByHopHeaders(h http.Header) {
	for _, f := range h.Values("Connection") {
		for _, sf := range strings.Split(f, ",") {
			if sf = textproto.TrimString(sf); sf != "" && httpguts.ValidHeaderFieldName(sf) {
				h.Del(sf)
			}
		}
	}
	for _, k := range hopHeaders {
		h.Del(k)
	}
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// flushWriter flushes after every write so that streamed responses are not delayed.
type flushWriter struct {
	w  io.Writer
	rc *http.ResponseController
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, fw.rc.Flush()
}
