// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bureau-foundation/sevenzip/lib/checksum"
)

// WriterOptions configures a [Writer].
type WriterOptions struct {
	// Methods is the coder chain for file data, applied in order (see
	// [EncodeFolder]). Required.
	Methods [][]byte

	// HeaderMethods, when non-empty, stores the header as an
	// ENCODED_HEADER compressed through this chain.
	HeaderMethods [][]byte

	// Solid packs all file data into one folder. Otherwise each file
	// gets its own folder.
	Solid bool
}

// Writer assembles an archive in memory and writes it in one pass.
// It is not safe for concurrent use.
type Writer struct {
	codec    Codec
	options  WriterOptions
	files    []File
	contents [][]byte
}

// NewWriter returns a Writer that encodes through codec.
func NewWriter(codec Codec, options WriterOptions) *Writer {
	return &Writer{codec: codec, options: options}
}

// AddFile adds a regular file. HasStream is derived from the content:
// an empty file is stored as an empty-stream entry flagged EMPTY_FILE.
func (w *Writer) AddFile(file File, content []byte) {
	file.HasStream = len(content) > 0
	file.IsEmptyFile = !file.HasStream
	w.files = append(w.files, file)
	w.contents = append(w.contents, content)
}

// AddDirectory adds a directory entry.
func (w *Writer) AddDirectory(name string, modified time.Time) {
	file := File{
		Name:       name,
		Attributes: Some(uint32(AttributeDirectory)),
	}
	if !modified.IsZero() {
		file.ModificationTime = Some(FiletimeFromTime(modified))
	}
	w.files = append(w.files, file)
	w.contents = append(w.contents, nil)
}

// Len is the number of entries added so far.
func (w *Writer) Len() int {
	return len(w.files)
}

// WriteTo encodes every added entry and writes the complete archive:
// signature header, pack streams, then the next header.
func (w *Writer) WriteTo(out io.Writer) (int64, error) {
	body, nextHeader, err := w.encode()
	if err != nil {
		return 0, err
	}
	signature := NewSignatureHeader(nextHeader, uint64(len(body)))

	var written int64
	for _, chunk := range [][]byte{signature.Bytes(), body, nextHeader} {
		n, err := out.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("writing archive: %w", err)
		}
	}
	return written, nil
}

// encode returns the pack stream area and the next header.
func (w *Writer) encode() (body, nextHeader []byte, err error) {
	if len(w.files) == 0 {
		return nil, nil, nil
	}
	if len(w.options.Methods) == 0 {
		return nil, nil, errors.New("writer has no coder chain")
	}

	var streams []int
	for i := range w.files {
		if w.files[i].HasStream {
			streams = append(streams, i)
		}
	}

	header := &Header{FilesInfo: &FilesInfo{Files: w.files}}
	if len(streams) > 0 {
		var main *StreamsInfo
		main, body, err = w.encodeStreams(streams)
		if err != nil {
			return nil, nil, err
		}
		header.MainStreams = main
	}

	plain, err := header.Marshal()
	if err != nil {
		return nil, nil, err
	}
	if len(w.options.HeaderMethods) == 0 {
		return body, plain, nil
	}

	encoded, packed, err := EncodeHeader(w.codec, plain, uint64(len(body)), w.options.HeaderMethods...)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding header: %w", err)
	}
	return append(body, packed...), encoded, nil
}

// encodeStreams builds the folders for the files at indices streams.
func (w *Writer) encodeStreams(streams []int) (*StreamsInfo, []byte, error) {
	info := &StreamsInfo{
		PackInfo:       &PackInfo{},
		UnpackInfo:     &UnpackInfo{},
		SubstreamsInfo: &SubstreamsInfo{},
	}
	var body []byte

	addFolder := func(data []byte, members []int) error {
		folder, packed, err := EncodeFolder(w.codec, data, w.options.Methods...)
		if err != nil {
			return err
		}
		info.UnpackInfo.Folders = append(info.UnpackInfo.Folders, *folder)
		info.PackInfo.PackSizes = append(info.PackInfo.PackSizes, uint64(len(packed)))
		body = append(body, packed...)

		info.SubstreamsInfo.NumUnpackStreams = append(info.SubstreamsInfo.NumUnpackStreams, len(members))
		for _, index := range members {
			content := w.contents[index]
			info.SubstreamsInfo.UnpackSizes = append(info.SubstreamsInfo.UnpackSizes, uint64(len(content)))
			info.SubstreamsInfo.Digests = append(info.SubstreamsInfo.Digests, Some(checksum.Sum(content)))
		}
		return nil
	}

	if w.options.Solid {
		var data []byte
		for _, index := range streams {
			data = append(data, w.contents[index]...)
		}
		if err := addFolder(data, streams); err != nil {
			return nil, nil, err
		}
	} else {
		for _, index := range streams {
			if err := addFolder(w.contents[index], []int{index}); err != nil {
				return nil, nil, fmt.Errorf("encoding %q: %w", w.files[index].Name, err)
			}
		}
	}
	return info, body, nil
}
