// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
// Package certutil generates certificates for the HTTPS proxy listener.
package certutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"time"
)

// DefaultHosts are used when a certificate is generated without hosts.
var DefaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// SelfSignedCert specifies a self-signed server certificate to be generated.
type SelfSignedCert struct {
	Hosts        []string
	Organization []string
	ValidFrom    time.Time
	ValidFor     time.Duration
	RsaBits      int
	EcdsaCurve   string
}

func RSASelfSignedCert(hosts ...string) *SelfSignedCert {
	return &SelfSignedCert{
		Hosts:        hostsOrDefault(hosts),
		Organization: []string{"Warden"},
		ValidFrom:    time.Now().Add(-time.Minute),
		ValidFor:     365 * 24 * time.Hour,
		RsaBits:      2048,
	}
}

func ECDSASelfSignedCert(hosts ...string) *SelfSignedCert {
	return &SelfSignedCert{
		Hosts:        hostsOrDefault(hosts),
		Organization: []string{"Warden"},
		ValidFrom:    time.Now().Add(-time.Minute),
		ValidFor:     365 * 24 * time.Hour,
		EcdsaCurve:   "P256",
	}
}

func hostsOrDefault(hosts []string) []string {
	if len(hosts) == 0 {
		return append([]string(nil), DefaultHosts...)
	}
	return hosts
}

// Gen generates a self-signed certificate, the implementation is based on https://golang.org/src/crypto/tls/generate_cert.go.
// The returned certificate has Leaf set.
func (c *SelfSignedCert) Gen() (tls.Certificate, error) {
	var cert tls.Certificate

	priv, err := c.generateKey()
	if err != nil {
		return cert, fmt.Errorf("generate private key %w", err)
	}

	keyUsage := x509.KeyUsageDigitalSignature
	// Only RSA subject keys should have the KeyEncipherment KeyUsage bits set.
	if _, isRSA := priv.(*rsa.PrivateKey); isRSA {
		keyUsage |= x509.KeyUsageKeyEncipherment
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return cert, fmt.Errorf("generate serial number %w", err)
	}

	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: c.Organization,
		},
		NotBefore: c.ValidFrom,
		NotAfter:  c.ValidFrom.Add(c.ValidFor),

		KeyUsage:              keyUsage,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	for _, h := range c.Hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, priv.Public(), priv)
	if err != nil {
		return cert, fmt.Errorf("create certificate %w", err)
	}
	leaf, err := x509.ParseCertificate(derBytes)
	if err != nil {
		return cert, fmt.Errorf("parse certificate %w", err)
	}
	cert.Certificate = [][]byte{derBytes}
	cert.PrivateKey = priv
	cert.Leaf = leaf

	return cert, nil
}

func (c *SelfSignedCert) generateKey() (crypto.Signer, error) {
	switch c.EcdsaCurve {
	case "":
		return rsa.GenerateKey(rand.Reader, c.RsaBits)
	case "P256":
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case "P384":
		return ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case "P521":
		return ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	default:
		return nil, fmt.Errorf("unrecognized elliptic curve: %q", c.EcdsaCurve)
	}
}
