// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"fmt"
	"hash"
	"hash/crc32"
)

// Sum returns the IEEE CRC-32 of data.
func Sum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// NewCRC32 returns a streaming IEEE CRC-32 hash.
func NewCRC32() hash.Hash32 {
	return crc32.NewIEEE()
}

// MismatchError reports a CRC-32 that differs from the stored value.
type MismatchError struct {
	Expected uint32
	Actual   uint32
}

func (err *MismatchError) Error() string {
	return fmt.Sprintf("crc32 mismatch: expected %s, got %s",
		FormatDigest(err.Expected), FormatDigest(err.Actual))
}

// Verify returns a *MismatchError when the CRC-32 of data is not
// expected.
func Verify(data []byte, expected uint32) error {
	if actual := Sum(data); actual != expected {
		return &MismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// FormatDigest returns the canonical 8-digit lower-case hex form of a
// CRC-32, big-endian as 7-Zip prints it.
func FormatDigest(digest uint32) string {
	return fmt.Sprintf("%08x", digest)
}
