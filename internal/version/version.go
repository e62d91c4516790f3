// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package version holds build information set with -ldflags at build time.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

var (
	Version = "devel"
	Time    = "unknown"
	Commit  = "unknown"
)

// String returns the build information in a tabular form.
func String() string {
	buf := new(strings.Builder)
	fmt.Fprintln(buf, "Version:\t", Version)
	fmt.Fprintln(buf, "Built time:\t", Time)
	fmt.Fprintln(buf, "Git commit:\t", Commit)
	fmt.Fprintln(buf, "Go Arch:\t", runtime.GOARCH)
	fmt.Fprintln(buf, "Go OS:\t\t", runtime.GOOS)
	fmt.Fprintln(buf, "Go Version:\t", runtime.Version())
	return buf.String()
}
