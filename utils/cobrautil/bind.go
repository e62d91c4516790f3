// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindAll updates the command flags with values from the environment variables.
// The variable name is the flag name in upper case with dashes replaced by underscores, prefixed with envPrefix.
// Flags set on the command line take precedence over environment variables.
func BindAll(cmd *cobra.Command, envPrefix string) error {
	v := viper.New()

	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		return err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	v.SetEnvKeyReplacer(envReplacer)
	v.SetEnvPrefix(envReplacer.Replace(strings.ToUpper(envPrefix)))
	v.AutomaticEnv()

	var errs []string
	update := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Changed || !v.IsSet(f.Name) {
				return
			}
			if err := fs.Set(f.Name, flagValue(v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %s", EnvName(envPrefix, f.Name), err))
			}
		})
	}
	update(cmd.PersistentFlags())
	update(cmd.Flags())

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}

	return nil
}

// flagValue formats a viper value so that it can be passed to pflag.FlagSet.Set.
// Slices are joined with commas.
func flagValue(val any) string {
	s := fmt.Sprintf("%v", val)
	if _, ok := val.([]string); ok || strings.HasPrefix(s, "[") {
		s = strings.TrimPrefix(s, "[")
		s = strings.TrimSuffix(s, "]")
		s = strings.NewReplacer(", ", ",", " ", ",").Replace(s)
	}
	return s
}
