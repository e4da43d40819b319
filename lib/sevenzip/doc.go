// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sevenzip implements the structural codec of the 7z archive
// format: the signature header, the property records of the next
// header, the folder (coder pipeline) graph, and the assembly of a
// header that may itself be stored compressed.
//
// The package is organized in layers, each usable independently:
//
//   - Records: [SignatureHeader], [PackInfo], [Folder] with its
//     [Coder] and [BindPair] values, [UnpackInfo], [SubstreamsInfo],
//     [StreamsInfo], [FilesInfo], [ArchiveProperties] and [Header].
//     Every record has a Read function that consumes exactly its own
//     layout, starting at its property-id tag, and a Write method
//     that reproduces the canonical bytes. Read functions return a
//     fresh record and nil on error, so a failed parse never leaves
//     a half-built value behind.
//
//   - Pipeline: a folder is a directed graph of coders joined by bind
//     pairs. [Folder.Validate] checks arity sums, that every coder
//     input has exactly one source, that exactly one output is left
//     unbound (the folder's result), and that the graph is acyclic.
//     [Folder.Decode] runs coders in topological order, routing pack
//     streams and intermediate outputs between them.
//     [EncodeFolder] builds a linear chain for authoring.
//
//   - Assembly: [ReadHeader] dispatches on the leading property id.
//     A plain HEADER is parsed directly; an ENCODED_HEADER is a
//     streams record describing one folder whose decoded output is
//     the real header. Exactly one level of encoding is accepted.
//     [EncodeHeader] is the inverse.
//
//   - Framing: [Reader] reads the signature header and next header
//     from an io.ReaderAt and decodes folders and substreams with
//     CRC verification. [Writer] authors complete archives.
//
// The byte transforms of individual coders (LZMA, LZMA2, BCJ, AES, …)
// are not implemented here. They are reached through the [Codec]
// interface, keyed by the coder's method id; lib/method provides the
// standard implementation.
//
// Failures are reported as one of four error types: [FormatError]
// for structural violations, [IntegrityError] for CRC mismatches,
// [CodecError] for coder failures, and [UnsupportedFeatureError] for
// valid but unimplemented format features.
package sevenzip
