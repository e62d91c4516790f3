// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
package warden

import (
	"github.com/saucelabs/warden/bind"
	"github.com/saucelabs/warden/command/ready"
	"github.com/saucelabs/warden/command/run"
	"github.com/saucelabs/warden/command/version"
	"github.com/saucelabs/warden/utils/cobrautil"
	"github.com/spf13/cobra"
)

const EnvPrefix = "WARDEN"

func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warden",
		Short: "Authenticating HTTP forward proxy with CONNECT tunneling",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cobrautil.BindAll(cmd, EnvPrefix)
		},
		SilenceUsage: true,
	}

	for _, c := range []*cobra.Command{
		run.Command(),
		ready.Command(),
	} {
		bind.FlagsUsage(c.Flags())
		cobrautil.AppendEnvToUsage(c, EnvPrefix)
		cmd.AddCommand(c)
	}
	v := version.Command()
	cobrautil.DefaultLong(v)
	cmd.AddCommand(v)

	cobrautil.NoHelpSubcommand(cmd)

	return cmd
}
