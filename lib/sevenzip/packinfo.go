// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// PackInfo locates the packed streams: contiguous byte ranges starting
// at PackPos (relative to the end of the signature header), one per
// entry of PackSizes, in order.
//
//	06 packPos numStreams [09 size…] [0a digests] 00
type PackInfo struct {
	PackPos   uint64
	PackSizes []uint64

	// Digests is either empty or parallel to PackSizes. 7-Zip itself
	// rarely stores pack stream CRCs.
	Digests []Optional[uint32]
}

// ReadPackInfo parses a PackInfo record starting at its 0x06 tag.
func ReadPackInfo(r *wire.Reader) (*PackInfo, error) {
	const section = "pack info"
	if err := expectProperty(r, section, PropertyPackInfo); err != nil {
		return nil, err
	}

	packPos, err := r.Number()
	if err != nil {
		return nil, inSection(section, fmt.Errorf("reading pack position: %w", err))
	}
	count, err := r.Count(1)
	if err != nil {
		return nil, inSection(section, fmt.Errorf("reading stream count: %w", err))
	}

	info := &PackInfo{PackPos: packPos}
	for {
		id, err := r.Byte()
		if err != nil {
			return nil, inSection(section, err)
		}
		switch PropertyID(id) {
		case PropertyEnd:
			if info.PackSizes == nil && count > 0 {
				return nil, formatErrorf(section, "%d streams but no SIZE list", count)
			}
			return info, nil
		case PropertySize:
			if info.PackSizes != nil {
				return nil, formatErrorf(section, "duplicate SIZE list")
			}
			info.PackSizes = make([]uint64, count)
			for i := range info.PackSizes {
				if info.PackSizes[i], err = r.Number(); err != nil {
					return nil, inSection(section, fmt.Errorf("reading size %d: %w", i, err))
				}
			}
		case PropertyCRC:
			if info.Digests, err = readDigests(r, count); err != nil {
				return nil, inSection(section, err)
			}
		default:
			return nil, formatErrorf(section, "unexpected property %s", PropertyID(id))
		}
	}
}

// Write appends the record, tag and END included.
func (p *PackInfo) Write(b *wire.Buffer) {
	b.Byte(byte(PropertyPackInfo))
	b.Number(p.PackPos)
	b.Number(uint64(len(p.PackSizes)))
	if len(p.PackSizes) > 0 {
		b.Byte(byte(PropertySize))
		for _, size := range p.PackSizes {
			b.Number(size)
		}
	}
	if anyDefined(p.Digests) {
		b.Byte(byte(PropertyCRC))
		writeDigests(b, p.Digests)
	}
	b.Byte(byte(PropertyEnd))
}

// StreamOffset returns the offset of pack stream index relative to the
// end of the signature header.
func (p *PackInfo) StreamOffset(index int) uint64 {
	offset := p.PackPos
	for _, size := range p.PackSizes[:index] {
		offset += size
	}
	return offset
}

// TotalSize is the sum of all pack sizes.
func (p *PackInfo) TotalSize() uint64 {
	var total uint64
	for _, size := range p.PackSizes {
		total += size
	}
	return total
}
