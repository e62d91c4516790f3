// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bind

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/saucelabs/warden"
	"github.com/saucelabs/warden/log"
	"github.com/spf13/pflag"
)

func TestHTTPProxyConfigFlags(t *testing.T) {
	cfg := warden.DefaultHTTPProxyConfig()
	lcfg := log.DefaultConfig()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	HTTPProxyConfig(fs, cfg, lcfg)

	logFile := filepath.Join(t.TempDir(), "logs", "warden.log")
	args := []string{
		"--protocol", "HTTPS",
		"--tls-cert-file", "cert.pem",
		"--tls-key-file", "key.pem",
		"--read-header-timeout", "5s",
		"--tunnel-close-timeout", "1m",
		"--log-level", "debug",
		"--log-format", "json",
		"--log-file", logFile,
	}
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lcfg.File.Close() })

	if cfg.Protocol != warden.HTTPSScheme {
		t.Errorf("protocol = %s, want https", cfg.Protocol)
	}
	if diff := cmp.Diff([]string{"cert.pem", "key.pem"}, []string{cfg.CertFile, cfg.KeyFile}); diff != "" {
		t.Errorf("unexpected TLS files (-want +got):\n%s", diff)
	}
	if cfg.ReadHeaderTimeout != 5*time.Second {
		t.Errorf("read header timeout = %s", cfg.ReadHeaderTimeout)
	}
	if cfg.TunnelCloseTimeout != time.Minute {
		t.Errorf("tunnel close timeout = %s", cfg.TunnelCloseTimeout)
	}
	if lcfg.Level != log.DebugLevel || lcfg.Format != log.JSONFormat {
		t.Errorf("log config = %+v", lcfg)
	}
	if lcfg.File == nil {
		t.Fatal("log file not opened")
	}
	if got := fs.Lookup("log-file").Value.String(); got != logFile {
		t.Errorf("log-file = %q, want %q", got, logFile)
	}
}

func TestHTTPProxyConfigFlagsInvalidProtocol(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	HTTPProxyConfig(fs, warden.DefaultHTTPProxyConfig(), log.DefaultConfig())

	if err := fs.Parse([]string{"--protocol", "h2"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestFlagsUsage(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var s string
	fs.StringVar(&s, "api-address", "", "<host:port>The API server address.")
	fs.StringVar(&s, "plain", "", "No hint.")
	FlagsUsage(fs)

	if got, want := fs.Lookup("api-address").Usage, "`host:port` The API server address."; got != want {
		t.Errorf("usage = %q, want %q", got, want)
	}
	if got, want := fs.Lookup("plain").Usage, "No hint."; got != want {
		t.Errorf("usage = %q, want %q", got, want)
	}
}
