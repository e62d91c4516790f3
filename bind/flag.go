// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bind registers command line flags for warden configuration structures.
package bind

import (
	"strings"

	"github.com/mmatczuk/anyflag"
	"github.com/saucelabs/warden"
	"github.com/saucelabs/warden/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func ConfigFile(fs *pflag.FlagSet, configFile *string) {
	fs.StringVarP(configFile,
		"config", "c", *configFile, "<path>"+
			"TOML file with the listen address and credentials. "+
			"It must set exactly one of the [tokens] or [users] tables. "+
			"The PORT environment variable overrides the port from the file. ")
}

func HTTPProxyConfig(fs *pflag.FlagSet, cfg *warden.HTTPProxyConfig, lcfg *log.Config) {
	HTTPServerConfig(fs, &cfg.HTTPServerConfig, "", true)
	LogConfig(fs, lcfg)

	fs.DurationVar(&cfg.TunnelCloseTimeout,
		"tunnel-close-timeout", cfg.TunnelCloseTimeout,
		"Forcibly close a CONNECT tunnel when this much time passed after one side closed it. "+
			"By default tunnels stay open until both sides close them. ")
}

func HTTPTransportConfig(fs *pflag.FlagSet, cfg *warden.HTTPTransportConfig) {
	fs.DurationVar(&cfg.DialTimeout,
		"http-dial-timeout", cfg.DialTimeout,
		"The maximum amount of time a dial will wait for a connect to complete. "+
			"With or without a timeout, the operating system may impose its own earlier timeout. For instance, TCP timeouts are often around 3 minutes. ")

	fs.DurationVar(&cfg.ResponseHeaderTimeout,
		"http-response-header-timeout", cfg.ResponseHeaderTimeout,
		"The amount of time to wait for a server's response headers after fully writing the request (including its body, if any). "+
			"This time does not include the time to read the response body. "+
			"Zero means no limit. ")

	fs.BoolVar(&cfg.InsecureSkipVerify, "insecure", cfg.InsecureSkipVerify,
		"Don't verify the server's certificate chain and host name when forwarding https requests. "+
			"Enable to work with self-signed certificates. ")
}

// HTTPServerConfig binds server flags with names prefixed with prefix.
// The address flag is bound only for prefixed servers, the proxy address comes from the config file.
func HTTPServerConfig(fs *pflag.FlagSet, cfg *warden.HTTPServerConfig, prefix string, withTLS bool) {
	namePrefix := prefix
	if namePrefix != "" {
		namePrefix += "-"

		fs.StringVar(&cfg.Addr,
			namePrefix+"address", cfg.Addr, "<host:port>"+
				"The server address to listen on. "+
				"If the host is empty, the server will listen on all available interfaces. ")
	}

	if withTLS {
		fs.Var(anyflag.NewValue[warden.Scheme](cfg.Protocol, &cfg.Protocol, warden.ParseScheme),
			namePrefix+"protocol", "<http|https>"+
				"The server protocol. "+
				"For https, if TLS certificate is not specified, the server will use a self-signed certificate. ")

		fs.StringVar(&cfg.CertFile,
			namePrefix+"tls-cert-file", cfg.CertFile, "<path>"+
				"TLS certificate to use if the server protocol is https. ")

		fs.StringVar(&cfg.KeyFile,
			namePrefix+"tls-key-file", cfg.KeyFile, "<path>"+
				"TLS private key to use if the server protocol is https. ")
	}

	fs.DurationVar(&cfg.ReadHeaderTimeout,
		namePrefix+"read-header-timeout", cfg.ReadHeaderTimeout,
		"The amount of time allowed to read request headers.")

	fs.DurationVar(&cfg.IdleTimeout,
		namePrefix+"idle-timeout", cfg.IdleTimeout,
		"The maximum amount of time to wait for the next request before closing connection. ")
}

// APIServerConfig binds the API server address, an empty address disables the server.
func APIServerConfig(fs *pflag.FlagSet, cfg *warden.HTTPServerConfig) {
	fs.StringVar(&cfg.Addr,
		"api-address", cfg.Addr, "<host:port>"+
			"The API server address to listen on. "+
			"It serves metrics, health, readiness, configuration and debug endpoints. "+
			"If empty, the API server is disabled. ")
}

func PromNamespace(fs *pflag.FlagSet, namespace *string) {
	fs.StringVar(namespace,
		"prom-namespace", *namespace, "<name>"+
			"Prometheus namespace to use for metrics. ")
}

func LogConfig(fs *pflag.FlagSet, cfg *log.Config) {
	fs.Var(NewFileFlag(&cfg.File, warden.OpenFileParser(log.DefaultFileFlags, log.DefaultFileMode, log.DefaultDirMode)),
		"log-file", "<path>"+
			"Path to the log file, if empty, logs to stdout. "+
			"The file is reopened on SIGHUP to allow log rotation using external tools. ")

	fs.Var(anyflag.NewValue[log.Level](cfg.Level, &cfg.Level, log.ParseLevel),
		"log-level", "<error|warn|info|debug>"+
			"Log level. ")

	fs.Var(anyflag.NewValue[log.Format](cfg.Format, &cfg.Format, log.ParseFormat),
		"log-format", "<text|json>"+
			"Log format. ")
}

func MarkFlagHidden(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.Flags().MarkHidden(name); err != nil {
			panic(err)
		}
	}
}

func AutoMarkFlagFilename(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if strings.HasPrefix(f.Usage, "<path") ||
			strings.HasSuffix(f.Name, "-file") {
			MarkFlagFilename(cmd, f.Name)
		}
	})
}

func MarkFlagFilename(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagFilename(name); err != nil {
			panic(err)
		}
	}
}

// FlagsUsage strips the value hint from the usage strings.
// Flags use "<hint>description" usages, pflag shows the hint as the value name.
func FlagsUsage(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if !strings.HasPrefix(f.Usage, "<") {
			return
		}
		if i := strings.IndexByte(f.Usage, '>'); i > 0 {
			f.Usage = "`" + f.Usage[1:i] + "` " + f.Usage[i+1:]
		}
	})
}
