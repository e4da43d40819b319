// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package method

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// defaultDictSize is the encoder dictionary when Options.DictSize is
// zero.
const defaultDictSize = 1 << 23

// LZMA in 7z is a raw stream: the five header bytes a .lzma file would
// start with (properties byte plus little-endian dictionary size) are
// the coder properties, and the uncompressed size comes from the
// folder. Decoding rebuilds the 13-byte .lzma header in front of the
// packed data.

func decodeLZMA(_ *Options, properties []byte, input []byte, outputSize uint64) ([]byte, error) {
	if len(properties) != 5 {
		return nil, fmt.Errorf("lzma: properties are %d bytes, want 5", len(properties))
	}

	header := make([]byte, lzma.HeaderLen)
	header[0] = properties[0]
	dictSize := binary.LittleEndian.Uint32(properties[1:])
	binary.LittleEndian.PutUint32(header[1:], decodeDictCap(dictSize, outputSize))
	binary.LittleEndian.PutUint64(header[5:], outputSize)

	reader, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header), bytes.NewReader(input)))
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	return readExactly(reader, outputSize)
}

func encodeLZMA(options *Options, input []byte) ([]byte, []byte, error) {
	var buffer bytes.Buffer
	config := lzma.WriterConfig{DictCap: encodeDictCap(options)}
	if len(input) > 0 {
		config.SizeInHeader = true
		config.Size = int64(len(input))
	} else {
		config.EOSMarker = true
	}
	writer, err := config.NewWriter(&buffer)
	if err != nil {
		return nil, nil, fmt.Errorf("lzma: %w", err)
	}
	if _, err := writer.Write(input); err != nil {
		return nil, nil, fmt.Errorf("lzma: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, nil, fmt.Errorf("lzma: %w", err)
	}

	encoded := buffer.Bytes()
	if len(encoded) < lzma.HeaderLen {
		return nil, nil, fmt.Errorf("lzma: encoder produced %d bytes, shorter than its header", len(encoded))
	}
	properties := append([]byte(nil), encoded[:5]...)
	return properties, encoded[lzma.HeaderLen:], nil
}

// LZMA2 carries its own chunk framing; the single property byte
// encodes the dictionary size.

func decodeLZMA2(_ *Options, properties []byte, input []byte, outputSize uint64) ([]byte, error) {
	if len(properties) != 1 {
		return nil, fmt.Errorf("lzma2: properties are %d bytes, want 1", len(properties))
	}
	dictSize, err := LZMA2DictSize(properties[0])
	if err != nil {
		return nil, err
	}

	reader, err := lzma.Reader2Config{
		DictCap: int(decodeDictCap(dictSize, outputSize)),
	}.NewReader2(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("lzma2: %w", err)
	}
	return readExactly(reader, outputSize)
}

func encodeLZMA2(options *Options, input []byte) ([]byte, []byte, error) {
	dictCap := encodeDictCap(options)

	var buffer bytes.Buffer
	writer, err := lzma.Writer2Config{DictCap: dictCap}.NewWriter2(&buffer)
	if err != nil {
		return nil, nil, fmt.Errorf("lzma2: %w", err)
	}
	if _, err := writer.Write(input); err != nil {
		return nil, nil, fmt.Errorf("lzma2: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, nil, fmt.Errorf("lzma2: %w", err)
	}
	return []byte{LZMA2DictProperty(uint32(dictCap))}, buffer.Bytes(), nil
}

// LZMA2DictSize decodes an LZMA2 dictionary-size property byte.
func LZMA2DictSize(property byte) (uint32, error) {
	switch {
	case property > 40:
		return 0, fmt.Errorf("lzma2: dictionary property %d out of range", property)
	case property == 40:
		return 0xffffffff, nil
	default:
		return (2 | uint32(property&1)) << (property/2 + 11), nil
	}
}

// LZMA2DictProperty returns the smallest property byte whose
// dictionary is at least size.
func LZMA2DictProperty(size uint32) byte {
	for property := byte(0); property < 40; property++ {
		if dict, _ := LZMA2DictSize(property); dict >= size {
			return property
		}
	}
	return 40
}

// decodeDictCap bounds the decoder dictionary by the output size. A
// dictionary larger than the data it decodes is never referenced, and
// the decoder allocates its full capacity up front.
func decodeDictCap(dictSize uint32, outputSize uint64) uint32 {
	bound := uint64(dictSize)
	if outputSize < bound {
		bound = outputSize
	}
	if bound < lzma.MinDictCap {
		bound = lzma.MinDictCap
	}
	return uint32(bound)
}

func encodeDictCap(options *Options) int {
	if options.DictSize == 0 {
		return defaultDictSize
	}
	if options.DictSize < lzma.MinDictCap {
		return lzma.MinDictCap
	}
	return int(options.DictSize)
}
