// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package method is the coder library behind 7z folders: it maps a
// coder's method id (the opaque bytes stored in the archive header)
// to an implementation that turns packed bytes into unpacked bytes,
// and, for methods that support authoring, back again.
//
// A [Registry] holds the known methods. [NewRegistry] pre-registers
// the built-in set:
//
//   - Copy (00), Delta (03), BCJ x86 (03 03 01 03)
//   - LZMA (03 01 01) and LZMA2 (21), via github.com/ulikunitz/xz/lzma
//   - Deflate (04 01 08) and Zstandard (04 F7 11 01), via
//     github.com/klauspost/compress
//   - LZ4 (04 F7 11 04) frames, via github.com/pierrec/lz4/v4
//   - BZip2 (04 02 02), decode only
//   - 7zAES (06 F1 07 01), AES-256-CBC with the SHA-256 iterated key
//
// Further methods are added with [Registry.Register]; the container
// codec in lib/sevenzip only sees the [Registry.Decode] and
// [Registry.Encode] entry points and never interprets filter
// semantics itself.
//
// Every method here transforms one input stream into one output
// stream. Multi-stream coders (BCJ2) are reported as
// [ErrUnsupported].
package method
