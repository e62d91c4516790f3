// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package run

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/saucelabs/warden"
	"github.com/saucelabs/warden/bind"
	"github.com/saucelabs/warden/internal/version"
	"github.com/saucelabs/warden/log"
	"github.com/saucelabs/warden/log/slog"
	"github.com/saucelabs/warden/runctx"
	"github.com/saucelabs/warden/utils/cobrautil"
	"github.com/spf13/cobra"
	"go.uber.org/goleak"
	"go.uber.org/multierr"
)

type command struct {
	promReg             *prometheus.Registry
	configFile          string
	httpTransportConfig *warden.HTTPTransportConfig
	httpProxyConfig     *warden.HTTPProxyConfig
	apiServerConfig     *warden.HTTPServerConfig
	logConfig           *log.Config

	dryRun bool
	goleak bool
}

func (c *command) runE(cmd *cobra.Command, _ []string) (cmdErr error) {
	if f := c.logConfig.File; f != nil {
		defer f.Close()
	}
	c.httpTransportConfig.PromNamespace = c.httpProxyConfig.PromNamespace
	c.apiServerConfig.PromNamespace = c.httpProxyConfig.PromNamespace

	onError, err := c.registerErrorsMetric()
	if err != nil {
		return fmt.Errorf("register errors metric: %w", err)
	}
	logger := slog.New(c.logConfig, slog.WithOnError(onError))

	defer func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close logger: %s\n", err)
		}
	}()

	defer func() {
		if cmdErr != nil {
			logger.Errorf("fatal error exiting: %s", cmdErr)
			cmd.SilenceErrors = true
		}
	}()

	logger.Infof("Warden %s (%s)", version.Version, version.Commit)
	logger.Debugf("resource limits: GOMAXPROCS=%d GOMEMLIMIT=%s", runtime.GOMAXPROCS(0), os.Getenv("GOMEMLIMIT"))

	var flagsCfg string
	{
		var err error
		flagsCfg, err = cobrautil.FlagsDescriber{
			Format:     cobrautil.Plain,
			ShowHidden: true,
		}.DescribeFlags(cmd.Flags())
		if err != nil {
			return err
		}
		logger.Debugf("flags configuration\n%s", flagsCfg)
	}

	pcfg, err := warden.LoadProxyConfig(c.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := pcfg.OverridePort(os.LookupEnv); err != nil {
		logger.Warn("ignoring port override", "env", warden.PortEnv, "error", err)
	}
	addr, err := pcfg.ListenAddress()
	if err != nil {
		return err
	}
	c.httpProxyConfig.Addr = addr

	portSource := "config"
	if pcfg.PortFromEnv {
		portSource = warden.PortEnv
	}
	logger.Info("configuration loaded",
		"file", c.configFile,
		"host", pcfg.Server.Host,
		"port", pcfg.Server.Port,
		"port_source", portSource,
	)

	store := warden.NewCredentialStore(pcfg)
	logger.Info("credentials loaded", "scheme", store.Scheme(), "count", store.Len())
	logger.Debug("credential names", "names", store.Names())

	a := warden.NewAuthenticator(store, pcfg.Auth)

	g := runctx.NewGroup()
	g.OnSignal = func(sig os.Signal) {
		logger.Info("shutting down", "signal", sig.String())
	}

	var p *warden.HTTPProxy
	{
		d := warden.NewDialer(&c.httpTransportConfig.DialConfig)
		rt := warden.NewHTTPTransport(c.httpTransportConfig, d)
		defer rt.CloseIdleConnections()

		p, err = warden.NewHTTPProxy(c.httpProxyConfig, a, rt, d.DialContext, logger.Named("proxy"))
		if err != nil {
			return err
		}
		defer p.Close()
		g.AddRunner(p)
	}

	{
		if err := c.registerGoMaxProcsMetric(); err != nil {
			return fmt.Errorf("register GOMAXPROCS metrics: %w", err)
		}
		if err := c.registerProcMetrics(); err != nil {
			return fmt.Errorf("register process metrics: %w", err)
		}
		if err := c.registerVersionMetric(); err != nil {
			return fmt.Errorf("register version metric: %w", err)
		}

		if c.apiServerConfig.Addr != "" {
			h := warden.NewAPIHandler(c.promReg, p, pcfg.Describe()+"\n"+flagsCfg)
			s, err := warden.NewHTTPServer(c.apiServerConfig, h, logger.Named("api"))
			if err != nil {
				return err
			}
			defer s.Close()
			g.AddRunner(s)
		}
	}

	if c.goleak {
		defer func() {
			if err := goleak.Find(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "goleak: %s", err)
				os.Exit(1)
			}
		}()
	}

	if c.dryRun {
		return nil
	}

	return g.Run()
}

func (c *command) registerErrorsMetric() (func(name string), error) {
	m := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: c.httpProxyConfig.PromNamespace,
		Name:      "errors_total",
		Help:      "Number of errors",
	}, []string{"name"})

	if err := c.promReg.Register(m); err != nil {
		return nil, err
	}

	return func(name string) {
		m.WithLabelValues(name).Inc()
	}, nil
}

func (c *command) registerGoMaxProcsMetric() error {
	return c.promReg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "go_env",
		Name:      "gomaxprocs",
		Help:      "Number of maximum goroutines that can be executed simultaneously",
	}, func() float64 {
		return float64(runtime.GOMAXPROCS(0))
	}))
}

func (c *command) registerProcMetrics() error {
	return multierr.Combine(
		// Note that ProcessCollector is only available in Linux and Windows.
		c.promReg.Register(collectors.NewProcessCollector(
			collectors.ProcessCollectorOpts{Namespace: c.httpProxyConfig.PromNamespace})),
		c.promReg.Register(collectors.NewGoCollector()),
	)
}

func (c *command) registerVersionMetric() error {
	return c.promReg.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: c.httpProxyConfig.PromNamespace,
		Name:      "version",
		Help:      "Warden version, value is always 1",
		ConstLabels: prometheus.Labels{
			"version": version.Version,
			"commit":  version.Commit,
			"time":    version.Time,
		},
	}, func() float64 {
		return 1
	}))
}

func Command() *cobra.Command {
	c := makeCommand()

	cmd := &cobra.Command{
		Use:     "run [--config <path>]",
		Short:   "Start the authenticating proxy server",
		Long:    long,
		Example: example,
		RunE:    c.runE,
	}

	fs := cmd.Flags()
	bind.ConfigFile(fs, &c.configFile)
	bind.HTTPProxyConfig(fs, c.httpProxyConfig, c.logConfig)
	bind.HTTPTransportConfig(fs, c.httpTransportConfig)
	bind.APIServerConfig(fs, c.apiServerConfig)
	bind.PromNamespace(fs, &c.httpProxyConfig.PromNamespace)
	bind.AutoMarkFlagFilename(cmd)

	fs.BoolVar(&c.goleak, "goleak", false, "enable goleak")

	bind.MarkFlagHidden(cmd,
		"goleak",
	)

	return cmd
}

// Metrics returns the registry populated with all metrics the run command registers.
// The proxy configuration is read from configFile, no connections are accepted.
func Metrics(configFile string) (*prometheus.Registry, error) {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}

	c := makeCommand()
	c.configFile = configFile
	c.logConfig = &log.Config{
		Level: log.ErrorLevel,
		File:  devNull,
	}
	c.httpProxyConfig.Addr = "localhost:0"
	c.apiServerConfig.Addr = ""
	c.dryRun = true

	cmd := &cobra.Command{
		Use:                "run",
		RunE:               c.runE,
		DisableFlagParsing: true,
	}
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err != nil {
		return nil, err
	}

	return c.promReg, nil
}

func makeCommand() command {
	c := command{
		promReg:             prometheus.NewRegistry(),
		configFile:          DefaultConfigFile,
		httpTransportConfig: warden.DefaultHTTPTransportConfig(),
		httpProxyConfig:     warden.DefaultHTTPProxyConfig(),
		apiServerConfig:     warden.DefaultHTTPServerConfig(),
		logConfig:           log.DefaultConfig(),
	}
	c.httpTransportConfig.PromRegistry = c.promReg
	c.httpProxyConfig.PromRegistry = c.promReg
	c.apiServerConfig.Name = "api"
	c.apiServerConfig.Addr = "localhost:10000"
	c.apiServerConfig.PromRegistry = c.promReg

	return c
}

const DefaultConfigFile = "config.toml"

const long = `Start the authenticating forward proxy server.
The proxy accepts CONNECT tunnels and plain HTTP requests from clients that present a valid credential.
Credentials and the listen address are read from a TOML file, the PORT environment variable overrides the port.
The server may use HTTP or HTTPS, if you start an HTTPS server and don't provide a certificate, a self-signed certificate is generated on startup.
`

const example = `  # Start proxy with the config.toml file from the working directory
  warden run

  # Start proxy on the port given by the platform
  PORT=3128 warden run --config /etc/warden/config.toml

  # Start HTTPS proxy with a self-signed certificate
  warden run --config config.toml --protocol https
`
