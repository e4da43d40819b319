// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package method

import (
	"bytes"
	"compress/bzip2"
	"fmt"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Deflate: raw RFC 1951 stream, no properties.

func decodeDeflate(_ *Options, _ []byte, input []byte, outputSize uint64) ([]byte, error) {
	reader := flate.NewReader(bytes.NewReader(input))
	defer reader.Close()
	output, err := readExactly(reader, outputSize)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return output, nil
}

func encodeDeflate(options *Options, input []byte) ([]byte, []byte, error) {
	level := options.Level
	if level == 0 {
		level = flate.DefaultCompression
	}
	var buffer bytes.Buffer
	writer, err := flate.NewWriter(&buffer, level)
	if err != nil {
		return nil, nil, fmt.Errorf("deflate: %w", err)
	}
	if _, err := writer.Write(input); err != nil {
		return nil, nil, fmt.Errorf("deflate: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, nil, fmt.Errorf("deflate: %w", err)
	}
	return nil, buffer.Bytes(), nil
}

// BZip2: decode only.

func decodeBZip2(_ *Options, _ []byte, input []byte, outputSize uint64) ([]byte, error) {
	output, err := readExactly(bzip2.NewReader(bytes.NewReader(input)), outputSize)
	if err != nil {
		return nil, fmt.Errorf("bzip2: %w", err)
	}
	return output, nil
}

// Zstandard and LZ4 use the property layout of the 7-Zip zstd fork:
// version major, version minor, level, and two reserved bytes. The
// decoders ignore the properties; the frames are self-describing.

// zstdDecoder is shared across calls. zstd.Decoder is safe for
// concurrent use through DecodeAll.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("method: zstd decoder initialization failed: " + err.Error())
	}
}

func decodeZstd(_ *Options, _ []byte, input []byte, outputSize uint64) ([]byte, error) {
	output, err := zstdDecoder.DecodeAll(input, make([]byte, 0, min(outputSize, 1<<20)))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	if uint64(len(output)) != outputSize {
		return nil, fmt.Errorf("zstd: decoded %d bytes, expected %d", len(output), outputSize)
	}
	return output, nil
}

func encodeZstd(options *Options, input []byte) ([]byte, []byte, error) {
	level := zstd.SpeedDefault
	if options.Level != 0 {
		level = zstd.EncoderLevelFromZstd(options.Level)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, nil, fmt.Errorf("zstd: %w", err)
	}
	defer encoder.Close()
	output := encoder.EncodeAll(input, nil)
	return []byte{1, 5, byte(options.Level), 0, 0}, output, nil
}

func decodeLZ4(_ *Options, _ []byte, input []byte, outputSize uint64) ([]byte, error) {
	output, err := readExactly(lz4.NewReader(bytes.NewReader(input)), outputSize)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	return output, nil
}

func encodeLZ4(options *Options, input []byte) ([]byte, []byte, error) {
	var buffer bytes.Buffer
	writer := lz4.NewWriter(&buffer)
	if options.Level != 0 {
		if err := writer.Apply(lz4.CompressionLevelOption(lz4.CompressionLevel(1 << (8 + options.Level)))); err != nil {
			return nil, nil, fmt.Errorf("lz4: %w", err)
		}
	}
	if _, err := writer.Write(input); err != nil {
		return nil, nil, fmt.Errorf("lz4: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, nil, fmt.Errorf("lz4: %w", err)
	}
	return []byte{1, 10, byte(options.Level), 0, 0}, buffer.Bytes(), nil
}
