// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/saucelabs/warden/utils/certutil"
)

type TLSClientConfig struct {
	// HandshakeTimeout specifies the maximum amount of time waiting to
	// wait for a TLS handshake. Zero means no timeout.
	HandshakeTimeout time.Duration

	// InsecureSkipVerify controls whether a client verifies the server's
	// certificate chain and host name. If InsecureSkipVerify is true, crypto/tls
	// accepts any certificate presented by the server and any host name in that
	// certificate. In this mode, TLS is susceptible to machine-in-the-middle
	// attacks. This should be used only for testing.
	InsecureSkipVerify bool
}

func (c *TLSClientConfig) ConfigureTLSConfig(tlsCfg *tls.Config) {
	tlsCfg.InsecureSkipVerify = c.InsecureSkipVerify //nolint:gosec // it's up to the user
}

type TLSServerConfig struct {
	// CertFile is the path to the TLS certificate.
	CertFile string

	// KeyFile is the path to the TLS private key of the certificate.
	KeyFile string
}

// ConfigureTLSConfig loads the certificate into tlsCfg.
// If neither CertFile nor KeyFile is set a self-signed certificate is generated.
func (c *TLSServerConfig) ConfigureTLSConfig(tlsCfg *tls.Config) error {
	var (
		cert tls.Certificate
		err  error
	)

	switch {
	case c.CertFile == "" && c.KeyFile == "":
		cert, err = certutil.ECDSASelfSignedCert().Gen()
	case c.CertFile == "" || c.KeyFile == "":
		return fmt.Errorf("both cert file and key file must be set")
	default:
		if _, err := os.Stat(c.CertFile); err != nil {
			return fmt.Errorf("cert file: %w", err)
		}
		if _, err := os.Stat(c.KeyFile); err != nil {
			return fmt.Errorf("key file: %w", err)
		}
		cert, err = tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	}
	if err != nil {
		return err
	}
	tlsCfg.Certificates = append(tlsCfg.Certificates, cert)

	return nil
}
