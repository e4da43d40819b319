// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "encoding/binary"

// Buffer accumulates encoded header bytes. The zero value is ready to
// use.
type Buffer struct {
	data []byte
}

// Byte appends one byte.
func (b *Buffer) Byte(value byte) {
	b.data = append(b.data, value)
}

// Number appends a variable-length integer.
func (b *Buffer) Number(value uint64) {
	b.data = AppendNumber(b.data, value)
}

// Uint32 appends a fixed-width little-endian uint32.
func (b *Buffer) Uint32(value uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, value)
}

// Uint64 appends a fixed-width little-endian uint64.
func (b *Buffer) Uint64(value uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, value)
}

// Write appends raw bytes. It implements io.Writer and never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

// Raw appends raw bytes.
func (b *Buffer) Raw(p []byte) {
	b.data = append(b.data, p...)
}

// Bools appends a packed bit vector.
func (b *Buffer) Bools(flags []bool) {
	b.data = AppendBools(b.data, flags)
}

// OptionalBools appends a bit vector in shortcut form.
func (b *Buffer) OptionalBools(flags []bool) {
	b.data = AppendOptionalBools(b.data, flags)
}

// Len returns the number of bytes accumulated.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the accumulated bytes. The slice aliases the buffer
// until the next append.
func (b *Buffer) Bytes() []byte {
	return b.data
}
