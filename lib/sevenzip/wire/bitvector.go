// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

// Shortcut marker bytes written ahead of an optional boolean vector.
const (
	// NotAllDefined precedes an explicit packed vector.
	NotAllDefined byte = 0x00

	// AllDefined replaces the vector entirely: every flag is true.
	AllDefined byte = 0x01
)

// AppendBools appends flags as a packed bit vector: flags[0] is bit 7
// of the first byte, flags[1] bit 6, and so on across bytes. Unused
// low bits of the last byte are zero.
func AppendBools(dst []byte, flags []bool) []byte {
	var current byte
	mask := byte(0x80)
	for _, flag := range flags {
		if flag {
			current |= mask
		}
		mask >>= 1
		if mask == 0 {
			dst = append(dst, current)
			current = 0
			mask = 0x80
		}
	}
	if mask != 0x80 {
		dst = append(dst, current)
	}
	return dst
}

// AppendOptionalBools appends flags in the shortcut form used for
// "defined" vectors: a single [AllDefined] byte when every flag is
// true, otherwise [NotAllDefined] followed by the packed vector.
func AppendOptionalBools(dst []byte, flags []bool) []byte {
	if allTrue(flags) {
		return append(dst, AllDefined)
	}
	dst = append(dst, NotAllDefined)
	return AppendBools(dst, flags)
}

// BoolsLen returns the packed length in bytes of a vector of count
// flags.
func BoolsLen(count int) int {
	return (count + 7) / 8
}

// UnpackBools expands the first count bits of packed, MSB first. The
// caller guarantees len(packed) >= BoolsLen(count).
func UnpackBools(packed []byte, count int) []bool {
	flags := make([]bool, count)
	for i := range flags {
		flags[i] = packed[i/8]&(0x80>>(i%8)) != 0
	}
	return flags
}

// CountTrue returns the number of set flags.
func CountTrue(flags []bool) int {
	var count int
	for _, flag := range flags {
		if flag {
			count++
		}
	}
	return count
}

func allTrue(flags []bool) bool {
	for _, flag := range flags {
		if !flag {
			return false
		}
	}
	return true
}
