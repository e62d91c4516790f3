// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"crypto/tls"
	"errors"
	"net"
	"net/http"
)

// ErrorHeader is the header that is set on error responses with the error message.
const ErrorHeader = "X-Warden-Error"

// errorLabel returns a short description of err suitable for a metric label.
func errorLabel(err error) string {
	handlers := []errorHandler{
		handleDNSError,
		handleTimeout,
		handleNetError,
		handleTLSRecordHeader,
		handleTLSCertificateError,
	}
	for _, h := range handlers {
		if label := h(err); label != "" {
			return label
		}
	}
	return "unexpected_error"
}

type errorHandler func(error) string

func handleDNSError(err error) string {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return "dns_not_found"
		}
		return "dns"
	}
	return ""
}

func handleTimeout(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return ""
}

func handleNetError(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "net_" + opErr.Op
	}
	return ""
}

func handleTLSRecordHeader(err error) string {
	var headerErr *tls.RecordHeaderError
	if errors.As(err, &headerErr) {
		return "tls_record_header"
	}
	return ""
}

func handleTLSCertificateError(err error) string {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return "tls_certificate"
	}
	return ""
}

// writeProxyError writes the response for a failed forward.
// The status is always 500, the body and ErrorHeader carry the error message.
func writeProxyError(w http.ResponseWriter, err error) {
	w.Header().Set(ErrorHeader, err.Error())
	writeText(w, http.StatusInternalServerError, "Proxy error: "+err.Error())
}
