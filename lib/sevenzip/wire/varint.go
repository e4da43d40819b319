// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"
	"io"
)

// MaxNumberLen is the longest encoding of a NUMBER: the 0xFF marker
// byte followed by eight little-endian bytes.
const MaxNumberLen = 9

// AppendNumber appends the 7z variable-length encoding of value to
// dst and returns the extended slice.
//
// Values below 0x80 take one byte. Otherwise the count of leading set
// bits in the first byte is the number of little-endian extension
// bytes that follow, and the remaining low bits of the first byte hold
// the value bits above those covered by the extension bytes. The
// shortest form that fits is always chosen.
func AppendNumber(dst []byte, value uint64) []byte {
	if value < 0x80 {
		return append(dst, byte(value))
	}

	// With n extension bytes the first byte keeps 7-n value bits, so
	// the encoding covers 8n + 7 - n = 7(n+1) bits.
	for extension := 1; extension < 8; extension++ {
		if value >= 1<<(7*(extension+1)) {
			continue
		}
		marker := byte(0xFF << (8 - extension))
		high := byte(value >> (8 * extension))
		dst = append(dst, marker|high)
		for i := 0; i < extension; i++ {
			dst = append(dst, byte(value>>(8*i)))
		}
		return dst
	}

	dst = append(dst, 0xFF)
	for i := 0; i < 8; i++ {
		dst = append(dst, byte(value>>(8*i)))
	}
	return dst
}

// NumberLen returns the encoded length of value in bytes.
func NumberLen(value uint64) int {
	var scratch [MaxNumberLen]byte
	return len(AppendNumber(scratch[:0], value))
}

// ReadNumber decodes one variable-length integer from r.
func ReadNumber(r io.ByteReader) (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, eofToUnexpected(err)
	}

	var value uint64
	mask := byte(0x80)
	for i := 0; i < 8; i++ {
		if first&mask == 0 {
			high := uint64(first & (mask - 1))
			return value | high<<(8*i), nil
		}
		next, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("reading number extension byte %d: %w", i, eofToUnexpected(err))
		}
		value |= uint64(next) << (8 * i)
		mask >>= 1
	}
	return value, nil
}

// eofToUnexpected converts a bare io.EOF into io.ErrUnexpectedEOF.
// Every read in a header is mandatory, so running out of bytes is
// always truncation.
func eofToUnexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
