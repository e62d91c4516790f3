// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
package ready

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"time"

	"github.com/saucelabs/warden"
	"github.com/spf13/cobra"
)

type Config struct {
	Address  string
	Protocol warden.Scheme
	Endpoint string
	Timeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Address:  "localhost:8080",
		Protocol: warden.HTTPScheme,
		Endpoint: warden.HealthPath,
		Timeout:  2 * time.Second,
	}
}

type command struct {
	Config
}

func (c *command) runE(cmd *cobra.Command, _ []string) error {
	host, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	addr := net.JoinHostPort(host, port)

	httpc := http.Client{
		Transport: &http.Transport{
			Proxy: nil,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, //nolint:gosec // the proxy may use a self-signed certificate
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx,
		http.MethodGet, fmt.Sprintf("%s://%s%s", c.Protocol, addr, c.Endpoint), http.NoBody)
	if err != nil {
		return err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, err := httputil.DumpResponse(resp, true)
		if err != nil {
			return err
		}
		if _, err := cmd.ErrOrStderr().Write(b); err != nil {
			return err
		}

		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func Command() *cobra.Command {
	return CommandWithConfig(DefaultConfig())
}

func CommandWithConfig(cfg Config) *cobra.Command {
	c := command{
		Config: cfg,
	}
	if p, ok := os.LookupEnv(warden.PortEnv); ok {
		c.Address = net.JoinHostPort("localhost", p)
	}

	cmd := &cobra.Command{
		Use:   "ready [--address <host:port>] [flags]",
		Short: "Readiness probe for the proxy",
		Long:  long,
		RunE:  c.runE,
	}

	bindConfig(cmd.Flags(), &c.Config)

	return cmd
}

const long = `Readiness probe for the proxy.
By default it calls the /health endpoint on the proxy listener, that is served without authentication.
The default address port is taken from the PORT environment variable if set.
To probe the API server instead use --address localhost:10000 --endpoint /readyz.`
