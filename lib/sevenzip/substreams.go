// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// SubstreamsInfo splits each folder's output into the files stored in
// it. A solid folder holds several substreams back to back.
//
//	08 [0d count…] [09 size…] [0a digests] 00
//
// Only the first count-1 sizes of each folder are stored; the last is
// the folder's unpack size minus the others. Digests are stored for
// every substream except those of a folder that holds exactly one
// substream and carries its own CRC, since that CRC already covers it.
type SubstreamsInfo struct {
	// NumUnpackStreams is the substream count of each folder. A folder
	// may hold zero substreams.
	NumUnpackStreams []int

	// UnpackSizes holds every substream's size, folder by folder,
	// including the derived last size of each folder.
	UnpackSizes []uint64

	// Digests is parallel to UnpackSizes. Substreams covered by their
	// folder's CRC carry that CRC here.
	Digests []Optional[uint32]
}

// ReadSubstreamsInfo parses the record starting at its 0x08 tag.
// folders supplies the folder count, unpack sizes and CRCs the record
// depends on.
func ReadSubstreamsInfo(r *wire.Reader, folders []Folder) (*SubstreamsInfo, error) {
	const section = "substreams info"
	if err := expectProperty(r, section, PropertySubstreamsInfo); err != nil {
		return nil, err
	}

	info := &SubstreamsInfo{NumUnpackStreams: make([]int, len(folders))}
	for i := range info.NumUnpackStreams {
		info.NumUnpackStreams[i] = 1
	}

	id, err := r.Byte()
	if err != nil {
		return nil, inSection(section, err)
	}

	if PropertyID(id) == PropertyNumUnpackStream {
		for i := range info.NumUnpackStreams {
			if info.NumUnpackStreams[i], err = r.Count(0); err != nil {
				return nil, inSection(section, fmt.Errorf("reading substream count of folder %d: %w", i, err))
			}
		}
		if id, err = r.Byte(); err != nil {
			return nil, inSection(section, err)
		}
	}

	total := 0
	for _, count := range info.NumUnpackStreams {
		total += count
		if total > 1<<24 {
			return nil, formatErrorf(section, "more than %d substreams", 1<<24)
		}
	}

	hasSizes := PropertyID(id) == PropertySize
	info.UnpackSizes = make([]uint64, 0, total)
	for i, count := range info.NumUnpackStreams {
		if count == 0 {
			continue
		}
		if count > 1 && !hasSizes {
			return nil, formatErrorf(section, "folder %d has %d substreams but no SIZE list", i, count)
		}
		folderSize := folders[i].UnpackSize()
		var sum uint64
		for j := 1; j < count; j++ {
			size, err := r.Number()
			if err != nil {
				return nil, inSection(section, fmt.Errorf("reading size %d of folder %d: %w", j-1, i, err))
			}
			sum += size
			if sum < size || sum > folderSize {
				return nil, formatErrorf(section, "substream sizes of folder %d exceed its unpack size %d", i, folderSize)
			}
			info.UnpackSizes = append(info.UnpackSizes, size)
		}
		info.UnpackSizes = append(info.UnpackSizes, folderSize-sum)
	}
	if hasSizes {
		if id, err = r.Byte(); err != nil {
			return nil, inSection(section, err)
		}
	}

	info.Digests = make([]Optional[uint32], 0, total)
	var stored []Optional[uint32]
	for {
		switch PropertyID(id) {
		case PropertyEnd:
			info.fillDigests(folders, stored)
			return info, nil
		case PropertyCRC:
			if stored != nil {
				return nil, formatErrorf(section, "duplicate CRC list")
			}
			if stored, err = readDigests(r, info.storedDigestCount(folders)); err != nil {
				return nil, inSection(section, err)
			}
		default:
			return nil, formatErrorf(section, "unexpected property %s", PropertyID(id))
		}
		if id, err = r.Byte(); err != nil {
			return nil, inSection(section, err)
		}
	}
}

// storedDigestCount is the number of digests the CRC list holds:
// substreams not already covered by a single-substream folder's CRC.
func (s *SubstreamsInfo) storedDigestCount(folders []Folder) int {
	count := 0
	for i, n := range s.NumUnpackStreams {
		if n == 1 && folders[i].CRC.Valid {
			continue
		}
		count += n
	}
	return count
}

// fillDigests expands the stored list into one digest per substream.
func (s *SubstreamsInfo) fillDigests(folders []Folder, stored []Optional[uint32]) {
	next := 0
	for i, n := range s.NumUnpackStreams {
		if n == 1 && folders[i].CRC.Valid {
			s.Digests = append(s.Digests, folders[i].CRC)
			continue
		}
		for range n {
			var digest Optional[uint32]
			if next < len(stored) {
				digest = stored[next]
			}
			s.Digests = append(s.Digests, digest)
			next++
		}
	}
}

// Write appends the record, tag and END included. Sections are
// omitted when they carry nothing: counts when every folder holds one
// substream, sizes when no folder holds more than one, digests when
// none is defined.
func (s *SubstreamsInfo) Write(b *wire.Buffer, folders []Folder) {
	b.Byte(byte(PropertySubstreamsInfo))

	writeCounts, writeSizes := false, false
	for _, n := range s.NumUnpackStreams {
		writeCounts = writeCounts || n != 1
		writeSizes = writeSizes || n > 1
	}
	if writeCounts {
		b.Byte(byte(PropertyNumUnpackStream))
		for _, n := range s.NumUnpackStreams {
			b.Number(uint64(n))
		}
	}
	if writeSizes {
		b.Byte(byte(PropertySize))
		start := 0
		for _, n := range s.NumUnpackStreams {
			for j := 0; j < n-1; j++ {
				b.Number(s.UnpackSizes[start+j])
			}
			start += n
		}
	}

	var stored []Optional[uint32]
	start := 0
	for i, n := range s.NumUnpackStreams {
		if !(n == 1 && folders[i].CRC.Valid) {
			for j := range n {
				var digest Optional[uint32]
				if start+j < len(s.Digests) {
					digest = s.Digests[start+j]
				}
				stored = append(stored, digest)
			}
		}
		start += n
	}
	if anyDefined(stored) {
		b.Byte(byte(PropertyCRC))
		writeDigests(b, stored)
	}
	b.Byte(byte(PropertyEnd))
}

// FolderRange returns the half-open range of substream indices that
// belong to folder.
func (s *SubstreamsInfo) FolderRange(folder int) (start, end int) {
	for _, n := range s.NumUnpackStreams[:folder] {
		start += n
	}
	return start, start + s.NumUnpackStreams[folder]
}

// Validate checks the record against the folders it describes.
func (s *SubstreamsInfo) Validate(folders []Folder) error {
	const section = "substreams info"
	if len(s.NumUnpackStreams) != len(folders) {
		return formatErrorf(section, "%d substream counts for %d folders", len(s.NumUnpackStreams), len(folders))
	}
	total := 0
	for _, n := range s.NumUnpackStreams {
		if n < 0 {
			return formatErrorf(section, "negative substream count %d", n)
		}
		total += n
	}
	if len(s.UnpackSizes) != total {
		return formatErrorf(section, "%d sizes for %d substreams", len(s.UnpackSizes), total)
	}
	if len(s.Digests) != 0 && len(s.Digests) != total {
		return formatErrorf(section, "%d digests for %d substreams", len(s.Digests), total)
	}
	for i := range folders {
		start, end := s.FolderRange(i)
		if start == end {
			continue
		}
		var sum uint64
		for _, size := range s.UnpackSizes[start:end] {
			sum += size
		}
		if sum != folders[i].UnpackSize() {
			return formatErrorf(section, "substreams of folder %d total %d bytes, folder unpacks %d", i, sum, folders[i].UnpackSize())
		}
	}
	return nil
}

// defaultSubstreams describes folders that have no SubstreamsInfo
// record: one substream per folder, sized and checked by the folder.
func defaultSubstreams(folders []Folder) *SubstreamsInfo {
	info := &SubstreamsInfo{
		NumUnpackStreams: make([]int, len(folders)),
		UnpackSizes:      make([]uint64, len(folders)),
		Digests:          make([]Optional[uint32], len(folders)),
	}
	for i := range folders {
		info.NumUnpackStreams[i] = 1
		info.UnpackSizes[i] = folders[i].UnpackSize()
		info.Digests[i] = folders[i].CRC
	}
	return info
}
