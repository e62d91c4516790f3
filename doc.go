// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package warden provides an authenticated forward proxy server.
// Requests are admitted with either a token header or HTTP Basic proxy authentication.
// CONNECT requests are relayed as opaque byte tunnels, other requests are forwarded to their destination.
package warden
