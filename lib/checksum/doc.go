// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package checksum provides the CRC-32 helpers the 7z codec uses for
// integrity checks, plus the content digests offered by the CLI's
// hash command.
//
// 7z stores the IEEE (ISO-HDLC) CRC-32 in three places: per pack
// stream in PackInfo, per folder or substream in UnpackInfo and
// SubstreamsInfo, and twice in the signature header. The helpers
// here compute and compare those values over explicit byte ranges:
//
//   - [Sum] -- CRC-32 of a byte slice
//   - [Verify] -- compares a byte slice against a stored CRC-32 and
//     returns a [MismatchError] when they differ
//   - [FormatDigest] -- canonical 8-digit hex form
//
// [New] returns a hash.Hash for any [Algorithm] (crc32, sha256,
// blake2b, blake3), used when listing per-entry digests.
//
// This package has no dependencies on other packages in this module.
package checksum
