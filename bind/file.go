// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package bind

import (
	"os"

	"github.com/mmatczuk/anyflag"
	"github.com/spf13/pflag"
)

// fileFlag wraps anyflag.Value[*os.File] so that String returns the file name.
type fileFlag struct {
	*anyflag.Value[*os.File]
	f **os.File
}

func (f fileFlag) String() string {
	if *f.f == nil {
		return ""
	}
	return (*f.f).Name()
}

// NewFileFlag returns a flag value that opens the file with p when set.
func NewFileFlag(f **os.File, p func(val string) (*os.File, error)) pflag.Value {
	if f == nil {
		panic("nil pointer")
	}
	return fileFlag{anyflag.NewValue[*os.File](*f, f, p), f}
}
