// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package method

import (
	"encoding/binary"
	"fmt"
)

// Delta filter: each byte is stored as the difference from the byte
// distance positions earlier. The single property byte is distance-1.

func deltaDistance(properties []byte) (int, error) {
	if len(properties) != 1 {
		return 0, fmt.Errorf("delta: properties are %d bytes, want 1", len(properties))
	}
	return int(properties[0]) + 1, nil
}

func decodeDelta(_ *Options, properties []byte, input []byte, outputSize uint64) ([]byte, error) {
	distance, err := deltaDistance(properties)
	if err != nil {
		return nil, err
	}
	if uint64(len(input)) != outputSize {
		return nil, fmt.Errorf("delta: input is %d bytes, want %d", len(input), outputSize)
	}
	output := make([]byte, len(input))
	for i, value := range input {
		if i >= distance {
			value += output[i-distance]
		}
		output[i] = value
	}
	return output, nil
}

func encodeDelta(options *Options, input []byte) ([]byte, []byte, error) {
	distance := options.DeltaDistance
	if distance == 0 {
		distance = 1
	}
	if distance < 1 || distance > 256 {
		return nil, nil, fmt.Errorf("delta: distance %d out of range [1, 256]", distance)
	}
	output := make([]byte, len(input))
	for i, value := range input {
		if i >= distance {
			value -= input[i-distance]
		}
		output[i] = value
	}
	return []byte{byte(distance - 1)}, output, nil
}

// BCJ x86 filter: relative CALL/JMP targets (E8/E9 followed by a
// 32-bit displacement) are converted to absolute addresses on encode
// and back on decode, which makes executables more compressible. The
// optional 4-byte property is the start offset.

func bcjStartOffset(properties []byte) (uint32, error) {
	switch len(properties) {
	case 0:
		return 0, nil
	case 4:
		return binary.LittleEndian.Uint32(properties), nil
	default:
		return 0, fmt.Errorf("bcj: properties are %d bytes, want 0 or 4", len(properties))
	}
}

func decodeBCJ(_ *Options, properties []byte, input []byte, outputSize uint64) ([]byte, error) {
	start, err := bcjStartOffset(properties)
	if err != nil {
		return nil, err
	}
	if uint64(len(input)) != outputSize {
		return nil, fmt.Errorf("bcj: input is %d bytes, want %d", len(input), outputSize)
	}
	output := make([]byte, len(input))
	copy(output, input)
	x86Convert(output, start, false)
	return output, nil
}

func encodeBCJ(_ *Options, input []byte) ([]byte, []byte, error) {
	output := make([]byte, len(input))
	copy(output, input)
	x86Convert(output, 0, true)
	return nil, output, nil
}

var (
	x86MaskAllowed = [8]bool{true, true, true, false, true, false, false, false}
	x86MaskBitNum  = [8]uint32{0, 1, 2, 2, 3, 3, 3, 3}
)

func x86TestByte(b byte) bool {
	return b == 0x00 || b == 0xff
}

// x86Convert rewrites buffer in place. position is the stream offset
// of buffer[0]. The last four bytes are never converted because a
// displacement cannot start there.
func x86Convert(buffer []byte, position uint32, encoding bool) {
	if len(buffer) <= 4 {
		return
	}
	limit := len(buffer) - 4
	previousPosition := -1
	var previousMask uint32

	for i := 0; i < limit; i++ {
		if buffer[i]&0xfe != 0xe8 {
			continue
		}

		gap := i - previousPosition
		if gap > 3 {
			previousMask = 0
		} else {
			previousMask = (previousMask << (gap - 1)) & 7
			if previousMask != 0 {
				b := buffer[i+4-int(x86MaskBitNum[previousMask])]
				if !x86MaskAllowed[previousMask] || x86TestByte(b) {
					previousPosition = i
					previousMask = previousMask<<1 | 1
					continue
				}
			}
		}
		previousPosition = i

		if !x86TestByte(buffer[i+4]) {
			previousMask = previousMask<<1 | 1
			continue
		}

		source := binary.LittleEndian.Uint32(buffer[i+1:])
		var destination uint32
		for {
			if encoding {
				destination = source + (position + uint32(i) + 5)
			} else {
				destination = source - (position + uint32(i) + 5)
			}
			if previousMask == 0 {
				break
			}
			shift := x86MaskBitNum[previousMask] * 8
			b := byte(destination >> (24 - shift))
			if !x86TestByte(b) {
				break
			}
			source = destination ^ (1<<(32-shift) - 1)
		}
		destination &= 0x01ffffff
		destination |= 0 - (destination & 0x01000000)
		binary.LittleEndian.PutUint32(buffer[i+1:], destination)
		i += 4
	}
}

func errShortInput(have int, want uint64) error {
	return fmt.Errorf("input is %d bytes, need %d", have, want)
}
