// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cobrautil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

type DescribeFormat int

const (
	Plain DescribeFormat = iota
	JSON
	YAML
)

func DescribeFlags(fs *pflag.FlagSet, format DescribeFormat) (string, error) {
	return FlagsDescriber{
		Format: format,
	}.DescribeFlags(fs)
}

// FlagsDescriber renders the effective flag values.
// It is used to log the configuration at startup and to serve it from the API server.
type FlagsDescriber struct {
	Format     DescribeFormat
	ShowHidden bool
}

func (d FlagsDescriber) DescribeFlags(fs *pflag.FlagSet) (string, error) {
	args := d.values(fs)

	switch d.Format {
	case Plain:
		keys := maps.Keys(args)
		slices.Sort(keys)
		var sb strings.Builder
		for _, name := range keys {
			fmt.Fprintf(&sb, "%s=%v\n", name, args[name])
		}
		return sb.String(), nil
	case JSON:
		b, err := json.Marshal(args)
		return string(b), err
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(args); err != nil {
			return "", err
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("unknown format %d", d.Format)
	}
}

func (d FlagsDescriber) values(fs *pflag.FlagSet) map[string]any {
	args := make(map[string]any, fs.NFlag())
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" || (f.Hidden && !d.ShowHidden) {
			return
		}

		switch v := f.Value.(type) {
		case sliceValue:
			if d.Format == Plain {
				args[f.Name] = strings.Join(v.GetSlice(), ",")
			} else {
				args[f.Name] = v.GetSlice()
			}
		default:
			if f.Value.Type() == "bool" {
				args[f.Name] = f.Value.String() == "true"
			} else {
				args[f.Name] = f.Value.String()
			}
		}
	})
	return args
}

type sliceValue interface {
	GetSlice() []string
}
