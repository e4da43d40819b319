// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// UnpackInfo lists the folders together with the unpack size of every
// coder out-stream and the optional per-folder CRCs:
//
//	07 0b numFolders external(00) folder… 0c size… [0a digests] 00
type UnpackInfo struct {
	Folders []Folder
}

// ReadUnpackInfo parses an UnpackInfo record starting at its 0x07 tag.
// A non-zero external byte (folders stored in an additional stream) is
// an *UnsupportedFeatureError. Every folder graph is validated once its
// unpack sizes are known.
func ReadUnpackInfo(r *wire.Reader) (*UnpackInfo, error) {
	const section = "unpack info"
	if err := expectProperty(r, section, PropertyUnpackInfo); err != nil {
		return nil, err
	}
	if err := expectProperty(r, section, PropertyFolder); err != nil {
		return nil, err
	}
	numFolders, err := r.Count(3)
	if err != nil {
		return nil, inSection(section, fmt.Errorf("reading folder count: %w", err))
	}
	external, err := r.Byte()
	if err != nil {
		return nil, inSection(section, fmt.Errorf("reading external flag: %w", err))
	}
	if external != 0 {
		return nil, unsupported("external folder definitions")
	}

	info := &UnpackInfo{Folders: make([]Folder, numFolders)}
	for i := range info.Folders {
		folder, err := ReadFolder(r)
		if err != nil {
			return nil, inSection(fmt.Sprintf("%s folder %d", section, i), err)
		}
		info.Folders[i] = *folder
	}

	if err := expectProperty(r, section, PropertyCodersUnpackSize); err != nil {
		return nil, err
	}
	for i := range info.Folders {
		folder := &info.Folders[i]
		folder.UnpackSizes = make([]uint64, folder.TotalOutStreams())
		for j := range folder.UnpackSizes {
			if folder.UnpackSizes[j], err = r.Number(); err != nil {
				return nil, inSection(section, fmt.Errorf("reading unpack size %d of folder %d: %w", j, i, err))
			}
		}
	}

	for {
		id, err := r.Byte()
		if err != nil {
			return nil, inSection(section, err)
		}
		switch PropertyID(id) {
		case PropertyEnd:
			if err := info.Validate(); err != nil {
				return nil, inSection(section, err)
			}
			return info, nil
		case PropertyCRC:
			digests, err := readDigests(r, numFolders)
			if err != nil {
				return nil, inSection(section, err)
			}
			for i, digest := range digests {
				info.Folders[i].CRC = digest
			}
		default:
			return nil, formatErrorf(section, "unexpected property %s", PropertyID(id))
		}
	}
}

// Write appends the record, tag and END included.
func (u *UnpackInfo) Write(b *wire.Buffer) {
	b.Byte(byte(PropertyUnpackInfo))
	b.Byte(byte(PropertyFolder))
	b.Number(uint64(len(u.Folders)))
	b.Byte(0)
	for i := range u.Folders {
		u.Folders[i].Write(b)
	}

	b.Byte(byte(PropertyCodersUnpackSize))
	for i := range u.Folders {
		for _, size := range u.Folders[i].UnpackSizes {
			b.Number(size)
		}
	}

	digests := make([]Optional[uint32], len(u.Folders))
	for i := range u.Folders {
		digests[i] = u.Folders[i].CRC
	}
	if anyDefined(digests) {
		b.Byte(byte(PropertyCRC))
		writeDigests(b, digests)
	}
	b.Byte(byte(PropertyEnd))
}

// Validate checks every folder's graph.
func (u *UnpackInfo) Validate() error {
	for i := range u.Folders {
		if err := u.Folders[i].Validate(); err != nil {
			return inSection(fmt.Sprintf("folder %d", i), err)
		}
	}
	return nil
}
