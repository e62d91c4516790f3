// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package warden

const redactedFragment = "xxxxx"

// redact returns the first and last four characters of a secret joined with an ellipsis.
// Secrets shorter than 12 bytes are fully redacted.
func redact(s string) string {
	if len(s) < 12 {
		return redactedFragment
	}
	return s[:4] + "..." + s[len(s)-4:]
}
