// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bureau-foundation/sevenzip/lib/checksum"
)

// SignatureHeaderSize is the fixed size of the signature header at
// offset zero. Every offset recorded in the next header, including the
// next header's own offset, is relative to the end of this block.
const SignatureHeaderSize = 32

// Magic is the six-byte file signature.
var Magic = [6]byte{'7', 'z', 0xbc, 0xaf, 0x27, 0x1c}

// Version is the format version stored after the magic.
type Version struct {
	Major byte
	Minor byte
}

// CurrentVersion is the version written by [Writer].
var CurrentVersion = Version{Major: 0, Minor: 4}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// SignatureHeader is the fixed 32-byte block at the start of every
// archive:
//
//	[0:6]   magic 37 7a bc af 27 1c
//	[6]     major version
//	[7]     minor version
//	[8:12]  StartHeaderCRC, CRC-32 of bytes [12:32]
//	[12:20] NextHeaderOffset, relative to byte 32
//	[20:28] NextHeaderSize
//	[28:32] NextHeaderCRC, CRC-32 of the next header bytes
//
// All integers are little-endian.
type SignatureHeader struct {
	Version          Version
	StartHeaderCRC   uint32
	NextHeaderOffset uint64
	NextHeaderSize   uint64
	NextHeaderCRC    uint32
}

// NewSignatureHeader returns a header describing nextHeader stored at
// nextHeaderOffset (relative to the end of the signature header), with
// both CRCs computed.
func NewSignatureHeader(nextHeader []byte, nextHeaderOffset uint64) *SignatureHeader {
	header := &SignatureHeader{
		Version:          CurrentVersion,
		NextHeaderOffset: nextHeaderOffset,
		NextHeaderSize:   uint64(len(nextHeader)),
		NextHeaderCRC:    checksum.Sum(nextHeader),
	}
	header.StartHeaderCRC = header.computeStartHeaderCRC()
	return header
}

// ReadSignatureHeader reads and validates the 32-byte signature header.
// A bad magic is a *FormatError, a major version other than zero is an
// *UnsupportedFeatureError, and a StartHeaderCRC that does not cover
// the following 20 bytes is an *IntegrityError. The next header's own
// CRC is checked later, by whoever reads the next header.
func ReadSignatureHeader(r io.Reader) (*SignatureHeader, error) {
	var raw [SignatureHeaderSize]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return nil, inSection("signature header", fmt.Errorf("reading %d bytes: %w", SignatureHeaderSize, err))
	}
	if !bytes.Equal(raw[:6], Magic[:]) {
		return nil, formatErrorf("signature header", "bad magic %x, want %x", raw[:6], Magic[:])
	}

	header := &SignatureHeader{
		Version:          Version{Major: raw[6], Minor: raw[7]},
		StartHeaderCRC:   binary.LittleEndian.Uint32(raw[8:12]),
		NextHeaderOffset: binary.LittleEndian.Uint64(raw[12:20]),
		NextHeaderSize:   binary.LittleEndian.Uint64(raw[20:28]),
		NextHeaderCRC:    binary.LittleEndian.Uint32(raw[28:32]),
	}
	if header.Version.Major != 0 {
		return nil, unsupported(fmt.Sprintf("archive version %s", header.Version))
	}
	if err := verifyCRC("start header", raw[12:32], header.StartHeaderCRC); err != nil {
		return nil, err
	}
	return header, nil
}

// Bytes returns the 32-byte encoding. The stored CRC fields are
// written as they are; use [NewSignatureHeader] or [SignatureHeader.Seal]
// to compute them.
func (h *SignatureHeader) Bytes() []byte {
	raw := make([]byte, SignatureHeaderSize)
	copy(raw, Magic[:])
	raw[6] = h.Version.Major
	raw[7] = h.Version.Minor
	binary.LittleEndian.PutUint32(raw[8:12], h.StartHeaderCRC)
	binary.LittleEndian.PutUint64(raw[12:20], h.NextHeaderOffset)
	binary.LittleEndian.PutUint64(raw[20:28], h.NextHeaderSize)
	binary.LittleEndian.PutUint32(raw[28:32], h.NextHeaderCRC)
	return raw
}

// Seal recomputes StartHeaderCRC from the other fields.
func (h *SignatureHeader) Seal() {
	h.StartHeaderCRC = h.computeStartHeaderCRC()
}

// NextHeaderPosition is the absolute file offset of the next header.
func (h *SignatureHeader) NextHeaderPosition() (int64, error) {
	position := uint64(SignatureHeaderSize) + h.NextHeaderOffset
	if position < h.NextHeaderOffset || position > 1<<62 {
		return 0, formatErrorf("signature header", "next header offset %d out of range", h.NextHeaderOffset)
	}
	return int64(position), nil
}

func (h *SignatureHeader) computeStartHeaderCRC() uint32 {
	var raw [20]byte
	binary.LittleEndian.PutUint64(raw[0:8], h.NextHeaderOffset)
	binary.LittleEndian.PutUint64(raw[8:16], h.NextHeaderSize)
	binary.LittleEndian.PutUint32(raw[16:20], h.NextHeaderCRC)
	return checksum.Sum(raw[:])
}
