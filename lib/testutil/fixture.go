// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Hex decodes a byte fixture written as hex. Whitespace and '|'
// separators are ignored so fixtures can be grouped by field:
//
//	raw := testutil.Hex(t, "06 00 01 | 09 30 | 00")
func Hex(t testing.TB, fixture string) []byte {
	t.Helper()
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '|':
			return -1
		}
		return r
	}, fixture)
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		t.Fatalf("bad hex fixture %q: %v", fixture, err)
	}
	return raw
}

// WriteFile writes data to name inside a per-test temporary directory
// and returns the full path. The directory is removed when the test
// completes.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}
