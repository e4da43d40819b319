// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"bytes"
	"fmt"
	"io/fs"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// Windows file attribute bits used by 7z archivers.
const (
	AttributeReadOnly  = 0x01
	AttributeHidden    = 0x02
	AttributeSystem    = 0x04
	AttributeDirectory = 0x10
	AttributeArchive   = 0x20

	// AttributeUnixExtension marks that the high 16 bits of the
	// attributes hold a Unix st_mode, as p7zip writes it.
	AttributeUnixExtension = 0x8000
)

// maxFiles bounds the file count read from a header.
const maxFiles = 1 << 24

// Filetime is a Windows FILETIME: 100-nanosecond intervals since
// 1601-01-01 UTC.
type Filetime uint64

// filetimeUnixEpoch is the FILETIME of 1970-01-01 UTC.
const filetimeUnixEpoch = 116444736000000000

// Time converts the FILETIME to a time.Time in UTC.
func (t Filetime) Time() time.Time {
	ticks := int64(t) - filetimeUnixEpoch
	return time.Unix(ticks/10_000_000, (ticks%10_000_000)*100).UTC()
}

// FiletimeFromTime converts a time.Time, truncating to 100ns.
func FiletimeFromTime(t time.Time) Filetime {
	return Filetime(t.Unix()*10_000_000 + int64(t.Nanosecond()/100) + filetimeUnixEpoch)
}

// File is one entry of FilesInfo. Entries with HasStream take the next
// substream, in order; the rest are directories, empty files or anti
// items.
type File struct {
	Name string

	// HasStream is false for entries flagged in EMPTY_STREAM.
	HasStream bool

	// IsEmptyFile marks an entry without a stream that is a zero-length
	// file rather than a directory.
	IsEmptyFile bool

	// IsAnti marks a deletion entry in an update archive.
	IsAnti bool

	Attributes       Optional[uint32]
	CreationTime     Optional[Filetime]
	AccessTime       Optional[Filetime]
	ModificationTime Optional[Filetime]
	StartPos         Optional[uint64]
}

// IsDir reports whether the entry is a directory: its attributes say
// so, or, lacking attributes, it has no stream and is not flagged as an
// empty file.
func (f *File) IsDir() bool {
	if f.Attributes.Valid {
		return f.Attributes.Value&AttributeDirectory != 0
	}
	return !f.HasStream && !f.IsEmptyFile
}

// Mode derives an fs.FileMode from the attributes. The Unix extension
// bits win when present.
func (f *File) Mode() fs.FileMode {
	if f.Attributes.Valid && f.Attributes.Value&AttributeUnixExtension != 0 {
		unix := f.Attributes.Value >> 16
		mode := fs.FileMode(unix & 0o777)
		switch unix & 0o170000 {
		case 0o040000:
			mode |= fs.ModeDir
		case 0o120000:
			mode |= fs.ModeSymlink
		}
		return mode
	}
	if f.IsDir() {
		return fs.ModeDir | 0o755
	}
	if f.Attributes.Valid && f.Attributes.Value&AttributeReadOnly != 0 {
		return 0o444
	}
	return 0o644
}

// FilesInfo is the file list:
//
//	05 numFiles (type size data)… 00
//
// Properties are EMPTY_STREAM, EMPTY_FILE, ANTI, NAME, the three times,
// ATTRIBUTES, START_POS and DUMMY padding. Unknown properties are
// skipped by size.
type FilesInfo struct {
	Files []File
}

// ReadFilesInfo parses the record starting at its 0x05 tag.
func ReadFilesInfo(r *wire.Reader) (*FilesInfo, error) {
	const section = "files info"
	if err := expectProperty(r, section, PropertyFilesInfo); err != nil {
		return nil, err
	}
	numFiles, err := r.Count(0)
	if err != nil {
		return nil, inSection(section, fmt.Errorf("reading file count: %w", err))
	}
	if numFiles > maxFiles {
		return nil, formatErrorf(section, "file count %d exceeds %d", numFiles, maxFiles)
	}
	// Every file costs at least one bit of the rest of the record (a
	// name, or a slot in a boolean vector), so a count that outruns the
	// remaining bytes is corrupt and must not size the allocation.
	if uint64(numFiles) > 8*uint64(r.Remaining()) {
		return nil, formatErrorf(section, "file count %d exceeds the %d remaining bytes", numFiles, r.Remaining())
	}

	files := make([]File, numFiles)
	for i := range files {
		files[i].HasStream = true
	}
	// emptyStreams holds the indices of files without a stream, the
	// domain of EMPTY_FILE and ANTI.
	var emptyStreams []int

	for {
		propertyType, err := r.Number()
		if err != nil {
			return nil, inSection(section, fmt.Errorf("reading property type: %w", err))
		}
		if propertyType == uint64(PropertyEnd) {
			return &FilesInfo{Files: files}, nil
		}
		size, err := r.Number()
		if err != nil {
			return nil, inSection(section, fmt.Errorf("reading size of property 0x%02x: %w", propertyType, err))
		}
		data, err := r.Bytes(size)
		if err != nil {
			return nil, inSection(section, fmt.Errorf("reading property 0x%02x: %w", propertyType, err))
		}
		if propertyType > 0xff {
			continue
		}
		property := wire.NewReader(data)
		propertySection := fmt.Sprintf("%s %s", section, PropertyID(propertyType))

		switch PropertyID(propertyType) {
		case PropertyEmptyStream:
			flags, err := property.Bools(numFiles)
			if err != nil {
				return nil, inSection(propertySection, err)
			}
			emptyStreams = emptyStreams[:0]
			for i, empty := range flags {
				files[i].HasStream = !empty
				if empty {
					emptyStreams = append(emptyStreams, i)
				}
			}
		case PropertyEmptyFile, PropertyAnti:
			flags, err := property.Bools(len(emptyStreams))
			if err != nil {
				return nil, inSection(propertySection, err)
			}
			for j, set := range flags {
				file := &files[emptyStreams[j]]
				if PropertyID(propertyType) == PropertyEmptyFile {
					file.IsEmptyFile = set
				} else {
					file.IsAnti = set
				}
			}
		case PropertyName:
			if err := readNames(property, files); err != nil {
				return nil, inSection(propertySection, err)
			}
		case PropertyCreationTime, PropertyAccessTime, PropertyModificationTime:
			err := readDefinedValues(property, numFiles, 8, func(i int, raw uint64) {
				value := Some(Filetime(raw))
				switch PropertyID(propertyType) {
				case PropertyCreationTime:
					files[i].CreationTime = value
				case PropertyAccessTime:
					files[i].AccessTime = value
				default:
					files[i].ModificationTime = value
				}
			})
			if err != nil {
				return nil, inSection(propertySection, err)
			}
		case PropertyAttributes:
			err := readDefinedValues(property, numFiles, 4, func(i int, raw uint64) {
				files[i].Attributes = Some(uint32(raw))
			})
			if err != nil {
				return nil, inSection(propertySection, err)
			}
		case PropertyStartPos:
			err := readDefinedValues(property, numFiles, 8, func(i int, raw uint64) {
				files[i].StartPos = Some(raw)
			})
			if err != nil {
				return nil, inSection(propertySection, err)
			}
		default:
			// DUMMY alignment padding and properties this reader does
			// not know; the size prefix has already skipped them.
		}
	}
}

// readNames decodes the NAME property: an external byte, then one
// NUL-terminated UTF-16LE string per file.
func readNames(property *wire.Reader, files []File) error {
	external, err := property.Byte()
	if err != nil {
		return err
	}
	if external != 0 {
		return unsupported("external file names")
	}
	raw, _ := property.Bytes(uint64(property.Remaining()))
	if len(raw)%2 != 0 {
		return fmt.Errorf("names occupy %d bytes, not a whole number of UTF-16 units", len(raw))
	}

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	index, start := 0, 0
	for offset := 0; offset < len(raw); offset += 2 {
		if raw[offset] != 0 || raw[offset+1] != 0 {
			continue
		}
		if index >= len(files) {
			return fmt.Errorf("more names than the %d files", len(files))
		}
		name, err := decoder.Bytes(raw[start:offset])
		if err != nil {
			return fmt.Errorf("decoding name %d: %w", index, err)
		}
		files[index].Name = string(name)
		index++
		start = offset + 2
	}
	if start != len(raw) {
		return fmt.Errorf("name %d is not NUL-terminated", index)
	}
	if index != len(files) {
		return fmt.Errorf("%d names for %d files", index, len(files))
	}
	return nil
}

// readDefinedValues reads the shared layout of the time, attribute and
// start-position properties: a defined-vector in shortcut form, an
// external byte, then one little-endian value of width bytes per
// defined file.
func readDefinedValues(property *wire.Reader, count, width int, assign func(int, uint64)) error {
	defined, err := property.OptionalBools(count)
	if err != nil {
		return err
	}
	external, err := property.Byte()
	if err != nil {
		return fmt.Errorf("reading external flag: %w", err)
	}
	if external != 0 {
		return unsupported("external file properties")
	}
	for i, isDefined := range defined {
		if !isDefined {
			continue
		}
		var value uint64
		if width == 4 {
			v, err := property.Uint32()
			if err != nil {
				return fmt.Errorf("reading value %d: %w", i, err)
			}
			value = uint64(v)
		} else {
			if value, err = property.Uint64(); err != nil {
				return fmt.Errorf("reading value %d: %w", i, err)
			}
		}
		assign(i, value)
	}
	return nil
}

// Write appends the record, tag and END included. Properties are
// written in 7-Zip's order and only when some file needs them.
func (fi *FilesInfo) Write(b *wire.Buffer) {
	files := fi.Files
	b.Byte(byte(PropertyFilesInfo))
	b.Number(uint64(len(files)))

	emptyStream := make([]bool, len(files))
	var emptyFile, anti []bool
	for i := range files {
		if files[i].HasStream {
			continue
		}
		emptyStream[i] = true
		emptyFile = append(emptyFile, files[i].IsEmptyFile)
		anti = append(anti, files[i].IsAnti)
	}
	if wire.CountTrue(emptyStream) > 0 {
		writeProperty(b, PropertyEmptyStream, wire.AppendBools(nil, emptyStream))
		if wire.CountTrue(emptyFile) > 0 {
			writeProperty(b, PropertyEmptyFile, wire.AppendBools(nil, emptyFile))
		}
		if wire.CountTrue(anti) > 0 {
			writeProperty(b, PropertyAnti, wire.AppendBools(nil, anti))
		}
	}

	if len(files) > 0 {
		writeProperty(b, PropertyName, encodeNames(files))
	}

	writeDefinedValues(b, PropertyCreationTime, files, 8, func(f *File) (uint64, bool) {
		return uint64(f.CreationTime.Value), f.CreationTime.Valid
	})
	writeDefinedValues(b, PropertyAccessTime, files, 8, func(f *File) (uint64, bool) {
		return uint64(f.AccessTime.Value), f.AccessTime.Valid
	})
	writeDefinedValues(b, PropertyModificationTime, files, 8, func(f *File) (uint64, bool) {
		return uint64(f.ModificationTime.Value), f.ModificationTime.Valid
	})
	writeDefinedValues(b, PropertyStartPos, files, 8, func(f *File) (uint64, bool) {
		return f.StartPos.Value, f.StartPos.Valid
	})
	writeDefinedValues(b, PropertyAttributes, files, 4, func(f *File) (uint64, bool) {
		return uint64(f.Attributes.Value), f.Attributes.Valid
	})

	b.Byte(byte(PropertyEnd))
}

func writeProperty(b *wire.Buffer, id PropertyID, data []byte) {
	b.Byte(byte(id))
	b.Number(uint64(len(data)))
	b.Raw(data)
}

func encodeNames(files []File) []byte {
	encoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	var names bytes.Buffer
	names.WriteByte(0)
	for i := range files {
		// Invalid UTF-8 is encoded as U+FFFD; the encoder never fails.
		encoded, _ := encoder.String(files[i].Name)
		names.WriteString(encoded)
		names.Write([]byte{0, 0})
	}
	return names.Bytes()
}

func writeDefinedValues(b *wire.Buffer, id PropertyID, files []File, width int, get func(*File) (uint64, bool)) {
	defined := make([]bool, len(files))
	for i := range files {
		_, defined[i] = get(&files[i])
	}
	if wire.CountTrue(defined) == 0 {
		return
	}
	var data wire.Buffer
	data.OptionalBools(defined)
	data.Byte(0)
	for i := range files {
		value, ok := get(&files[i])
		if !ok {
			continue
		}
		if width == 4 {
			data.Uint32(uint32(value))
		} else {
			data.Uint64(value)
		}
	}
	writeProperty(b, id, data.Bytes())
}
