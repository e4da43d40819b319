// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding configuration used for
// machine-readable archive dumps.
//
// The sevenzip tool renders a parsed header as YAML for people, JSON
// for scripts, and CBOR for compact storage and comparison. This
// package holds the CBOR side so every caller encodes identically.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Dumping the same archive twice produces identical bytes, so two dumps
// can be compared with cmp(1).
//
//	err := codec.NewEncoder(w).Encode(report)
//	data, err := codec.Marshal(report)
//	notation, err := codec.Diagnose(data)
//
// [Diagnose] renders encoded bytes in RFC 8949 diagnostic notation for
// the dump command's cbor-diag format.
//
// # Struct Tag Rules
//
// Report types carry `json` tags only. fxamacker/cbor v2 reads `json`
// tags as a fallback when `cbor` tags are absent, so one tag controls
// field naming and omitempty for JSON and CBOR alike. YAML output uses
// its own `yaml` tags.
package codec
