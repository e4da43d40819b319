// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the primitive encodings used inside 7z
// headers: the variable-length unsigned integer ("NUMBER" in the 7z
// format notes), packed boolean vectors with the optional "all
// defined" shortcut, and fixed-width little-endian integers.
//
// [Reader] walks an in-memory header buffer and reports truncation as
// [io.ErrUnexpectedEOF]. [Buffer] accumulates an encoded header;
// appends never fail, so record writers do not thread errors through
// every field.
//
// The package knows nothing about property ids or record layouts.
// Those live in lib/sevenzip, which wraps wire errors in its own
// format error type.
package wire
