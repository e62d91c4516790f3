// Copyright 2022-2026 Sauce Labs Inc., all rights reserved.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

//go:build unix

package log

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatableFileReopen(t *testing.T) {
	dir := t.TempDir()

	f, err := os.OpenFile(filepath.Join(dir, "warden.log"), DefaultFileFlags, DefaultFileMode)
	if err != nil {
		t.Fatal(err)
	}
	r := NewRotatableFile(f)

	const rotations = 5
	for i := 1; i <= rotations; i++ {
		if _, err := fmt.Fprintf(r, "line %d\n", i); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(f.Name(), filepath.Join(dir, fmt.Sprintf("warden.log.%d", i))); err != nil {
			t.Fatal(err)
		}
		if err := r.Reopen(); err != nil {
			t.Fatal(err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= rotations; i++ {
		b, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("warden.log.%d", i)))
		if err != nil {
			t.Fatal(err)
		}
		if want := fmt.Sprintf("line %d\n", i); string(b) != want {
			t.Fatalf("file %d: got %q, want %q", i, b, want)
		}
	}
}
