// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"io"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// ReadHeader parses next-header bytes into a Header. A plain HEADER is
// parsed directly. An ENCODED_HEADER describes one folder whose pack
// streams are read from source at base plus their pack position; the
// folder is decoded through codec, its CRC verified, and the output
// parsed as a plain HEADER. An encoded header that decodes to another
// encoded header is a *FormatError.
func ReadHeader(source io.ReaderAt, headerBytes []byte, base int64, codec Codec) (*Header, error) {
	r := wire.NewReader(headerBytes)
	id, err := peekProperty(r, "next header")
	if err != nil {
		return nil, err
	}
	switch id {
	case PropertyHeader:
		return ReadPlainHeader(r)
	case PropertyEncodedHeader:
		streams, err := ReadEncodedHeader(r)
		if err != nil {
			return nil, err
		}
		decoded, err := DecodeEncodedHeader(source, base, streams, codec)
		if err != nil {
			return nil, err
		}
		if len(decoded) > 0 && PropertyID(decoded[0]) == PropertyEncodedHeader {
			return nil, formatErrorf("encoded header", "header is encoded more than once")
		}
		return ReadPlainHeader(wire.NewReader(decoded))
	default:
		return nil, formatErrorf("next header", "starts with %s, want HEADER or ENCODED_HEADER", id)
	}
}

// ReadEncodedHeader parses an ENCODED_HEADER record starting at its
// 0x17 tag. The streams it describes must hold exactly one folder.
func ReadEncodedHeader(r *wire.Reader) (*StreamsInfo, error) {
	const section = "encoded header"
	if err := expectProperty(r, section, PropertyEncodedHeader); err != nil {
		return nil, err
	}
	streams, err := readStreamsInfo(r, section)
	if err != nil {
		return nil, err
	}
	if streams.PackInfo == nil {
		return nil, formatErrorf(section, "no pack info")
	}
	if folders := len(streams.Folders()); folders != 1 {
		return nil, formatErrorf(section, "describes %d folders, want 1", folders)
	}
	return streams, nil
}

// DecodeEncodedHeader reads and decodes the single folder of an
// encoded header and verifies its CRC when one is stored.
func DecodeEncodedHeader(source io.ReaderAt, base int64, streams *StreamsInfo, codec Codec) ([]byte, error) {
	packed, err := readFolderPackStreams(source, base, streams, 0)
	if err != nil {
		return nil, inSection("encoded header", err)
	}
	folder := &streams.UnpackInfo.Folders[0]
	decoded, err := folder.Decode(codec, packed)
	if err != nil {
		return nil, inSection("encoded header", err)
	}
	if folder.CRC.Valid {
		if err := verifyCRC("encoded header", decoded, folder.CRC.Value); err != nil {
			return nil, err
		}
	}
	return decoded, nil
}

// EncodeHeader compresses a marshalled plain header through the coder
// chain. It returns the ENCODED_HEADER bytes to store as the next
// header and the pack stream, which the caller must place at packPos
// (relative to the end of the signature header).
func EncodeHeader(codec Codec, plain []byte, packPos uint64, methods ...[]byte) (encoded, packed []byte, err error) {
	folder, packed, err := EncodeFolder(codec, plain, methods...)
	if err != nil {
		return nil, nil, err
	}
	streams := &StreamsInfo{
		PackInfo:   &PackInfo{PackPos: packPos, PackSizes: []uint64{uint64(len(packed))}},
		UnpackInfo: &UnpackInfo{Folders: []Folder{*folder}},
	}
	var b wire.Buffer
	b.Byte(byte(PropertyEncodedHeader))
	streams.Write(&b)
	return b.Bytes(), packed, nil
}
