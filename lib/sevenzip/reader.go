// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"
	"io"
	"log/slog"
)

// DefaultMaxHeaderSize bounds the next header a Reader will load when
// ReaderOptions.MaxHeaderSize is zero.
const DefaultMaxHeaderSize = 256 << 20

// ReaderOptions configures [NewReader].
type ReaderOptions struct {
	// Logger receives debug events for header and folder decoding.
	// Nil discards them.
	Logger *slog.Logger

	// MaxHeaderSize rejects archives whose next header is larger.
	MaxHeaderSize uint64
}

// Entry maps one file of the archive to the bytes that hold its data.
type Entry struct {
	// Index is the file's position in the header's file list.
	Index int

	File *File

	// Folder is the folder holding the file's data, or -1 for files
	// without a stream.
	Folder int

	// Substream is the global substream index, or -1.
	Substream int

	// Offset is the position of the file's data within the folder's
	// unpacked output.
	Offset uint64

	Size uint64
	CRC  Optional[uint32]
}

// Reader gives access to an archive's header and stored data. The
// header is parsed once by NewReader; folder decoding reads the source
// on demand and is safe for concurrent use.
type Reader struct {
	source    io.ReaderAt
	codec     Codec
	logger    *slog.Logger
	signature *SignatureHeader
	header    *Header
	entries   []Entry
	encoded   bool
}

// NewReader reads the signature header and next header from source,
// verifies both CRCs, and parses the header, decoding it through codec
// when it is encoded.
func NewReader(source io.ReaderAt, codec Codec, options ReaderOptions) (*Reader, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxHeaderSize := options.MaxHeaderSize
	if maxHeaderSize == 0 {
		maxHeaderSize = DefaultMaxHeaderSize
	}

	signature, err := ReadSignatureHeader(io.NewSectionReader(source, 0, SignatureHeaderSize))
	if err != nil {
		return nil, err
	}
	reader := &Reader{
		source:    source,
		codec:     codec,
		logger:    logger,
		signature: signature,
		header:    &Header{},
	}

	if signature.NextHeaderSize == 0 {
		logger.Debug("archive has no next header", "version", signature.Version.String())
		return reader, nil
	}
	if signature.NextHeaderSize > maxHeaderSize {
		return nil, formatErrorf("signature header", "next header is %d bytes, limit is %d", signature.NextHeaderSize, maxHeaderSize)
	}
	position, err := signature.NextHeaderPosition()
	if err != nil {
		return nil, err
	}

	headerBytes := make([]byte, signature.NextHeaderSize)
	if n, err := source.ReadAt(headerBytes, position); n < len(headerBytes) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, inSection("next header", fmt.Errorf("reading %d bytes at %d: %w", len(headerBytes), position, err))
	}
	if err := verifyCRC("next header", headerBytes, signature.NextHeaderCRC); err != nil {
		return nil, err
	}

	reader.encoded = PropertyID(headerBytes[0]) == PropertyEncodedHeader
	logger.Debug("parsing next header",
		"version", signature.Version.String(),
		"offset", position,
		"size", len(headerBytes),
		"encoded", reader.encoded,
	)
	if reader.header, err = ReadHeader(source, headerBytes, SignatureHeaderSize, codec); err != nil {
		return nil, err
	}
	if err := reader.header.Validate(); err != nil {
		return nil, err
	}
	reader.entries = mapEntries(reader.header)
	return reader, nil
}

// Signature returns the archive's signature header.
func (r *Reader) Signature() *SignatureHeader {
	return r.signature
}

// Header returns the parsed next header.
func (r *Reader) Header() *Header {
	return r.header
}

// HeaderEncoded reports whether the next header was stored as an
// ENCODED_HEADER.
func (r *Reader) HeaderEncoded() bool {
	return r.encoded
}

// Entries returns every file with the location of its data.
func (r *Reader) Entries() []Entry {
	return r.entries
}

// NumFolders is the number of folders in the main streams.
func (r *Reader) NumFolders() int {
	return len(r.header.MainStreams.Folders())
}

// PackStreams reads the pack streams of folder, verifying any stored
// pack stream CRCs.
func (r *Reader) PackStreams(folder int) ([][]byte, error) {
	if folder < 0 || folder >= r.NumFolders() {
		return nil, fmt.Errorf("folder %d out of range (archive has %d)", folder, r.NumFolders())
	}
	return readFolderPackStreams(r.source, SignatureHeaderSize, r.header.MainStreams, folder)
}

// DecodeFolder returns the unpacked output of folder, verifying the
// folder CRC when one is stored.
func (r *Reader) DecodeFolder(folder int) ([]byte, error) {
	packed, err := r.PackStreams(folder)
	if err != nil {
		return nil, err
	}
	f := &r.header.MainStreams.UnpackInfo.Folders[folder]
	r.logger.Debug("decoding folder",
		"folder", folder,
		"coders", len(f.Coders),
		"pack_streams", len(packed),
		"unpack_size", f.UnpackSize(),
	)
	output, err := f.Decode(r.codec, packed)
	if err != nil {
		return nil, fmt.Errorf("folder %d: %w", folder, err)
	}
	if f.CRC.Valid {
		if err := verifyCRC(fmt.Sprintf("folder %d", folder), output, f.CRC.Value); err != nil {
			return nil, err
		}
	}
	return output, nil
}

// Substreams decodes folder and splits its output into substreams,
// verifying each stored substream digest.
func (r *Reader) Substreams(folder int) ([][]byte, error) {
	output, err := r.DecodeFolder(folder)
	if err != nil {
		return nil, err
	}
	info := r.header.MainStreams.Substreams()
	start, end := info.FolderRange(folder)
	parts := make([][]byte, 0, end-start)
	var offset uint64
	for i := start; i < end; i++ {
		size := info.UnpackSizes[i]
		if offset+size > uint64(len(output)) {
			return nil, formatErrorf("substreams info", "substream %d overruns folder %d", i, folder)
		}
		part := output[offset : offset+size]
		if i < len(info.Digests) && info.Digests[i].Valid {
			if err := verifyCRC(fmt.Sprintf("substream %d of folder %d", i-start, folder), part, info.Digests[i].Value); err != nil {
				return nil, err
			}
		}
		parts = append(parts, part)
		offset += size
	}
	return parts, nil
}

// ReadEntry returns the data of one entry. Files without a stream
// return an empty slice. Reading many entries of a solid folder this
// way decodes the folder once per entry; iterate [Reader.Substreams]
// instead.
func (r *Reader) ReadEntry(entry *Entry) ([]byte, error) {
	if entry.Folder < 0 {
		return []byte{}, nil
	}
	output, err := r.DecodeFolder(entry.Folder)
	if err != nil {
		return nil, err
	}
	if entry.Offset+entry.Size > uint64(len(output)) {
		return nil, formatErrorf("substreams info", "entry %d overruns folder %d", entry.Index, entry.Folder)
	}
	data := output[entry.Offset : entry.Offset+entry.Size]
	if entry.CRC.Valid {
		if err := verifyCRC(fmt.Sprintf("file %q", entry.File.Name), data, entry.CRC.Value); err != nil {
			return nil, err
		}
	}
	return data, nil
}

// mapEntries assigns files with a stream to substreams in order,
// skipping folders that hold none. The header has been validated, so
// the counts agree.
func mapEntries(header *Header) []Entry {
	files := header.Files()
	info := header.MainStreams.Substreams()

	entries := make([]Entry, len(files))
	folder, substream := 0, 0
	var offset uint64
	for i := range files {
		entries[i] = Entry{Index: i, File: &files[i], Folder: -1, Substream: -1}
		if !files[i].HasStream {
			continue
		}
		for {
			_, end := info.FolderRange(folder)
			if substream < end {
				break
			}
			folder++
			offset = 0
		}
		entries[i].Folder = folder
		entries[i].Substream = substream
		entries[i].Offset = offset
		entries[i].Size = info.UnpackSizes[substream]
		if substream < len(info.Digests) {
			entries[i].CRC = info.Digests[substream]
		}
		offset += info.UnpackSizes[substream]
		substream++
	}
	return entries
}
