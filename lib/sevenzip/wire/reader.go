// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Reader decodes primitives from an in-memory header buffer. All
// methods report truncation as io.ErrUnexpectedEOF (wrapped) and leave
// the read position unspecified after an error.
type Reader struct {
	data   []byte
	offset int
}

// NewReader returns a Reader positioned at the start of data. The
// Reader does not copy data; slices returned by [Reader.Bytes] alias
// it.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.offset
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.offset
}

// ReadByte implements io.ByteReader.
func (r *Reader) ReadByte() (byte, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}
	value := r.data[r.offset]
	r.offset++
	return value, nil
}

// Byte reads one byte.
func (r *Reader) Byte() (byte, error) {
	value, err := r.ReadByte()
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return value, nil
}

// PeekByte returns the next byte without consuming it.
func (r *Reader) PeekByte() (byte, error) {
	if r.offset >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	return r.data[r.offset], nil
}

// Number reads a variable-length integer.
func (r *Reader) Number() (uint64, error) {
	return ReadNumber(r)
}

// Count reads a variable-length integer used as an element count and
// rejects values that could not possibly fit in the remaining input
// given at least minBytesEach bytes per element. This keeps a corrupt
// count from driving a huge allocation. A minBytesEach of zero only
// bounds the count by the int range.
func (r *Reader) Count(minBytesEach int) (int, error) {
	value, err := r.Number()
	if err != nil {
		return 0, err
	}
	limit := uint64(1<<31 - 1)
	if minBytesEach > 0 {
		limit = uint64(r.Remaining() / minBytesEach)
	}
	if value > limit {
		return 0, fmt.Errorf("count %d exceeds the %d remaining bytes", value, r.Remaining())
	}
	return int(value), nil
}

// Uint32 reads a fixed-width little-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	raw, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

// Uint64 reads a fixed-width little-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	raw, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(raw), nil
}

// Bytes returns the next length bytes. The result aliases the
// Reader's buffer.
func (r *Reader) Bytes(length uint64) ([]byte, error) {
	if length > uint64(r.Remaining()) {
		return nil, fmt.Errorf("need %d bytes, %d remain: %w", length, r.Remaining(), io.ErrUnexpectedEOF)
	}
	start := r.offset
	r.offset += int(length)
	return r.data[start:r.offset], nil
}

// Skip discards length bytes.
func (r *Reader) Skip(length uint64) error {
	_, err := r.Bytes(length)
	return err
}

// Bools reads a packed vector of count flags.
func (r *Reader) Bools(count int) ([]bool, error) {
	packed, err := r.Bytes(uint64(BoolsLen(count)))
	if err != nil {
		return nil, fmt.Errorf("reading %d-entry bit vector: %w", count, err)
	}
	return UnpackBools(packed, count), nil
}

// OptionalBools reads a vector written by [AppendOptionalBools]: a
// marker byte, then the packed vector unless the marker says every
// flag is set.
func (r *Reader) OptionalBools(count int) ([]bool, error) {
	marker, err := r.Byte()
	if err != nil {
		return nil, fmt.Errorf("reading all-defined marker: %w", err)
	}
	if marker == NotAllDefined {
		return r.Bools(count)
	}
	flags := make([]bool, count)
	for i := range flags {
		flags[i] = true
	}
	return flags, nil
}
