// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
package ready

import (
	"github.com/mmatczuk/anyflag"
	"github.com/saucelabs/warden"
	"github.com/spf13/pflag"
)

func bindConfig(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.Address,
		"address", "", cfg.Address, "<host:port>"+
			"The proxy or API server address. ")
	fs.VarP(anyflag.NewValue[warden.Scheme](cfg.Protocol, &cfg.Protocol, warden.ParseScheme),
		"protocol", "", "<http|https>"+
			"The server protocol. ")
	fs.StringVarP(&cfg.Endpoint,
		"endpoint", "", cfg.Endpoint, "<path>"+
			"The endpoint to call, it must return 200 OK. ")
	fs.DurationVarP(&cfg.Timeout,
		"timeout", "", cfg.Timeout, "<duration>"+
			"The probe timeout. ")
}
