// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// Header is the decoded next header:
//
//	01 [02 archive properties] [04 main streams] [05 files] 00
//
// ADDITIONAL_STREAMS_INFO (03) is rejected as unsupported.
type Header struct {
	ArchiveProperties *ArchiveProperties
	MainStreams       *StreamsInfo
	FilesInfo         *FilesInfo
}

// ReadPlainHeader parses a HEADER record starting at its 0x01 tag and
// checks that the file list agrees with the substreams.
func ReadPlainHeader(r *wire.Reader) (*Header, error) {
	const section = "header"
	if err := expectProperty(r, section, PropertyHeader); err != nil {
		return nil, err
	}

	header := &Header{}
	id, err := peekProperty(r, section)
	if err != nil {
		return nil, err
	}
	if id == PropertyArchiveProperties {
		if header.ArchiveProperties, err = ReadArchiveProperties(r); err != nil {
			return nil, err
		}
		if id, err = peekProperty(r, section); err != nil {
			return nil, err
		}
	}
	if id == PropertyAdditionalStreamsInfo {
		return nil, unsupported("additional streams")
	}
	if id == PropertyMainStreamsInfo {
		if header.MainStreams, err = ReadMainStreamsInfo(r); err != nil {
			return nil, err
		}
		if id, err = peekProperty(r, section); err != nil {
			return nil, err
		}
	}
	if id == PropertyFilesInfo {
		if header.FilesInfo, err = ReadFilesInfo(r); err != nil {
			return nil, err
		}
	}
	if err := expectProperty(r, section, PropertyEnd); err != nil {
		return nil, err
	}

	if err := header.checkStreamCount(); err != nil {
		return nil, err
	}
	return header, nil
}

// Write appends the record, tag and END included.
func (h *Header) Write(b *wire.Buffer) {
	b.Byte(byte(PropertyHeader))
	if h.ArchiveProperties != nil {
		h.ArchiveProperties.Write(b)
	}
	if h.MainStreams != nil {
		b.Byte(byte(PropertyMainStreamsInfo))
		h.MainStreams.Write(b)
	}
	if h.FilesInfo != nil {
		h.FilesInfo.Write(b)
	}
	b.Byte(byte(PropertyEnd))
}

// Marshal validates the header and returns its encoding.
func (h *Header) Marshal() ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	var b wire.Buffer
	h.Write(&b)
	return b.Bytes(), nil
}

// Validate checks the folder graphs, the stream accounting and the
// file-to-substream mapping.
func (h *Header) Validate() error {
	if h.MainStreams != nil {
		if err := h.MainStreams.Validate(); err != nil {
			return inSection("main streams info", err)
		}
	}
	return h.checkStreamCount()
}

// Files returns the file list, empty when the header has none.
func (h *Header) Files() []File {
	if h == nil || h.FilesInfo == nil {
		return nil
	}
	return h.FilesInfo.Files
}

// checkStreamCount verifies that the files with a stream match the
// substreams one to one.
func (h *Header) checkStreamCount() error {
	withStream := 0
	for _, file := range h.Files() {
		if file.HasStream {
			withStream++
		}
	}
	substreams := len(h.MainStreams.Substreams().UnpackSizes)
	if withStream != substreams {
		return &FormatError{Section: "header",
			Err: fmt.Errorf("%d files have data but the archive stores %d substreams", withStream, substreams)}
	}
	return nil
}
