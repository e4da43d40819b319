// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package method

// Method ids of the built-in coders. These are protocol constants
// written into archive headers.
const (
	Copy    ID = "\x00"
	Delta   ID = "\x03"
	BCJ     ID = "\x03\x03\x01\x03"
	LZMA    ID = "\x03\x01\x01"
	LZMA2   ID = "\x21"
	Deflate ID = "\x04\x01\x08"
	BZip2   ID = "\x04\x02\x02"
	Zstd    ID = "\x04\xf7\x11\x01"
	LZ4     ID = "\x04\xf7\x11\x04"
	AES     ID = "\x06\xf1\x07\x01"
)

func builtins() []Method {
	return []Method{
		{ID: Copy, Name: "copy", Decode: decodeCopy, Encode: encodeCopy},
		{ID: Delta, Name: "delta", Decode: decodeDelta, Encode: encodeDelta},
		{ID: BCJ, Name: "bcj", Decode: decodeBCJ, Encode: encodeBCJ},
		{ID: LZMA, Name: "lzma", Decode: decodeLZMA, Encode: encodeLZMA},
		{ID: LZMA2, Name: "lzma2", Decode: decodeLZMA2, Encode: encodeLZMA2},
		{ID: Deflate, Name: "deflate", Decode: decodeDeflate, Encode: encodeDeflate},
		{ID: BZip2, Name: "bzip2", Decode: decodeBZip2},
		{ID: Zstd, Name: "zstd", Decode: decodeZstd, Encode: encodeZstd},
		{ID: LZ4, Name: "lz4", Decode: decodeLZ4, Encode: encodeLZ4},
		{ID: AES, Name: "aes", Decode: decodeAES, Encode: encodeAES},
	}
}

func decodeCopy(_ *Options, _ []byte, input []byte, outputSize uint64) ([]byte, error) {
	if uint64(len(input)) < outputSize {
		return nil, errShortInput(len(input), outputSize)
	}
	return input[:outputSize], nil
}

func encodeCopy(_ *Options, input []byte) ([]byte, []byte, error) {
	return nil, input, nil
}
