// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// PropertyID is the tag byte that introduces each header record and
// each FilesInfo property. These values are protocol constants.
type PropertyID byte

const (
	PropertyEnd                   PropertyID = 0x00
	PropertyHeader                PropertyID = 0x01
	PropertyArchiveProperties     PropertyID = 0x02
	PropertyAdditionalStreamsInfo PropertyID = 0x03
	PropertyMainStreamsInfo       PropertyID = 0x04
	PropertyFilesInfo             PropertyID = 0x05
	PropertyPackInfo              PropertyID = 0x06
	PropertyUnpackInfo            PropertyID = 0x07
	PropertySubstreamsInfo        PropertyID = 0x08
	PropertySize                  PropertyID = 0x09
	PropertyCRC                   PropertyID = 0x0a
	PropertyFolder                PropertyID = 0x0b
	PropertyCodersUnpackSize      PropertyID = 0x0c
	PropertyNumUnpackStream       PropertyID = 0x0d
	PropertyEmptyStream           PropertyID = 0x0e
	PropertyEmptyFile             PropertyID = 0x0f
	PropertyAnti                  PropertyID = 0x10
	PropertyName                  PropertyID = 0x11
	PropertyCreationTime          PropertyID = 0x12
	PropertyAccessTime            PropertyID = 0x13
	PropertyModificationTime      PropertyID = 0x14
	PropertyAttributes            PropertyID = 0x15
	PropertyComment               PropertyID = 0x16
	PropertyEncodedHeader         PropertyID = 0x17
	PropertyStartPos              PropertyID = 0x18
	PropertyDummy                 PropertyID = 0x19
)

var propertyNames = map[PropertyID]string{
	PropertyEnd:                   "END",
	PropertyHeader:                "HEADER",
	PropertyArchiveProperties:     "ARCHIVE_PROPERTIES",
	PropertyAdditionalStreamsInfo: "ADDITIONAL_STREAMS_INFO",
	PropertyMainStreamsInfo:       "MAIN_STREAMS_INFO",
	PropertyFilesInfo:             "FILES_INFO",
	PropertyPackInfo:              "PACK_INFO",
	PropertyUnpackInfo:            "UNPACK_INFO",
	PropertySubstreamsInfo:        "SUBSTREAMS_INFO",
	PropertySize:                  "SIZE",
	PropertyCRC:                   "CRC",
	PropertyFolder:                "FOLDER",
	PropertyCodersUnpackSize:      "CODERS_UNPACK_SIZE",
	PropertyNumUnpackStream:       "NUM_UNPACK_STREAM",
	PropertyEmptyStream:           "EMPTY_STREAM",
	PropertyEmptyFile:             "EMPTY_FILE",
	PropertyAnti:                  "ANTI",
	PropertyName:                  "NAME",
	PropertyCreationTime:          "CTIME",
	PropertyAccessTime:            "ATIME",
	PropertyModificationTime:      "MTIME",
	PropertyAttributes:            "ATTRIBUTES",
	PropertyComment:               "COMMENT",
	PropertyEncodedHeader:         "ENCODED_HEADER",
	PropertyStartPos:              "START_POS",
	PropertyDummy:                 "DUMMY",
}

// String returns the property's name in the 7z format notes, or its
// hex value when unknown.
func (id PropertyID) String() string {
	if name, ok := propertyNames[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", byte(id))
}

// expectProperty consumes one byte and fails unless it is want.
func expectProperty(r *wire.Reader, section string, want PropertyID) error {
	got, err := r.Byte()
	if err != nil {
		return inSection(section, fmt.Errorf("reading %s tag: %w", want, err))
	}
	if PropertyID(got) != want {
		return formatErrorf(section, "expected %s (0x%02x) at offset %d, got %s", want, byte(want), r.Offset()-1, PropertyID(got))
	}
	return nil
}

// peekProperty returns the next tag without consuming it.
func peekProperty(r *wire.Reader, section string) (PropertyID, error) {
	got, err := r.PeekByte()
	if err != nil {
		return 0, inSection(section, fmt.Errorf("reading property id: %w", err))
	}
	return PropertyID(got), nil
}

// Optional holds a value that a record may leave undefined, such as a
// CRC that was never stored or a timestamp the archiver omitted.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some returns a defined Optional.
func Some[T any](value T) Optional[T] {
	return Optional[T]{Value: value, Valid: true}
}

// Get returns the value and whether it is defined.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// readDigests reads a defined-vector in shortcut form followed by one
// CRC-32 per defined entry.
func readDigests(r *wire.Reader, count int) ([]Optional[uint32], error) {
	defined, err := r.OptionalBools(count)
	if err != nil {
		return nil, err
	}
	digests := make([]Optional[uint32], count)
	for i, isDefined := range defined {
		if !isDefined {
			continue
		}
		value, err := r.Uint32()
		if err != nil {
			return nil, fmt.Errorf("reading digest %d: %w", i, err)
		}
		digests[i] = Some(value)
	}
	return digests, nil
}

// writeDigests is the inverse of readDigests.
func writeDigests(b *wire.Buffer, digests []Optional[uint32]) {
	defined := make([]bool, len(digests))
	for i, digest := range digests {
		defined[i] = digest.Valid
	}
	b.OptionalBools(defined)
	for _, digest := range digests {
		if digest.Valid {
			b.Uint32(digest.Value)
		}
	}
}

// anyDefined reports whether any entry is defined.
func anyDefined[T any](values []Optional[T]) bool {
	for _, value := range values {
		if value.Valid {
			return true
		}
	}
	return false
}
