// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// StreamsInfo groups the three records that describe stored data, each
// optional and always in this order, followed by END. It is the body
// of both MAIN_STREAMS_INFO and ENCODED_HEADER.
type StreamsInfo struct {
	PackInfo       *PackInfo
	UnpackInfo     *UnpackInfo
	SubstreamsInfo *SubstreamsInfo
}

// ReadMainStreamsInfo parses a MAIN_STREAMS_INFO record starting at
// its 0x04 tag.
func ReadMainStreamsInfo(r *wire.Reader) (*StreamsInfo, error) {
	if err := expectProperty(r, "main streams info", PropertyMainStreamsInfo); err != nil {
		return nil, err
	}
	return readStreamsInfo(r, "main streams info")
}

func readStreamsInfo(r *wire.Reader, section string) (*StreamsInfo, error) {
	info := &StreamsInfo{}

	id, err := peekProperty(r, section)
	if err != nil {
		return nil, err
	}
	if id == PropertyPackInfo {
		if info.PackInfo, err = ReadPackInfo(r); err != nil {
			return nil, inSection(section, err)
		}
		if id, err = peekProperty(r, section); err != nil {
			return nil, err
		}
	}
	if id == PropertyUnpackInfo {
		if info.UnpackInfo, err = ReadUnpackInfo(r); err != nil {
			return nil, inSection(section, err)
		}
		if id, err = peekProperty(r, section); err != nil {
			return nil, err
		}
	}
	if id == PropertySubstreamsInfo {
		if info.UnpackInfo == nil {
			return nil, formatErrorf(section, "SUBSTREAMS_INFO without UNPACK_INFO")
		}
		if info.SubstreamsInfo, err = ReadSubstreamsInfo(r, info.UnpackInfo.Folders); err != nil {
			return nil, inSection(section, err)
		}
	}
	if err := expectProperty(r, section, PropertyEnd); err != nil {
		return nil, err
	}

	if err := info.checkPackStreams(); err != nil {
		return nil, inSection(section, err)
	}
	return info, nil
}

// Write appends the present records and END. The caller writes the
// leading MAIN_STREAMS_INFO or ENCODED_HEADER tag.
func (s *StreamsInfo) Write(b *wire.Buffer) {
	if s.PackInfo != nil {
		s.PackInfo.Write(b)
	}
	if s.UnpackInfo != nil {
		s.UnpackInfo.Write(b)
		if s.SubstreamsInfo != nil {
			s.SubstreamsInfo.Write(b, s.UnpackInfo.Folders)
		}
	}
	b.Byte(byte(PropertyEnd))
}

// Folders returns the folder list, empty when there is no UnpackInfo.
func (s *StreamsInfo) Folders() []Folder {
	if s == nil || s.UnpackInfo == nil {
		return nil
	}
	return s.UnpackInfo.Folders
}

// Substreams returns the SubstreamsInfo record, or the implied one
// substream per folder when the record is absent.
func (s *StreamsInfo) Substreams() *SubstreamsInfo {
	if s == nil {
		return &SubstreamsInfo{}
	}
	if s.SubstreamsInfo != nil {
		return s.SubstreamsInfo
	}
	return defaultSubstreams(s.Folders())
}

// FirstPackStream returns the index in PackInfo of the first pack
// stream consumed by folder.
func (s *StreamsInfo) FirstPackStream(folder int) int {
	first := 0
	for i := range s.UnpackInfo.Folders[:folder] {
		first += len(s.UnpackInfo.Folders[i].PackedStreams)
	}
	return first
}

// Validate checks every folder graph, the pack stream accounting, and
// the substreams against their folders.
func (s *StreamsInfo) Validate() error {
	if s.UnpackInfo != nil {
		if err := s.UnpackInfo.Validate(); err != nil {
			return err
		}
	}
	if err := s.checkPackStreams(); err != nil {
		return err
	}
	if s.SubstreamsInfo != nil {
		if s.UnpackInfo == nil {
			return formatErrorf("streams info", "substreams without folders")
		}
		return s.SubstreamsInfo.Validate(s.UnpackInfo.Folders)
	}
	return nil
}

// checkPackStreams verifies that the folders consume exactly the pack
// streams PackInfo declares.
func (s *StreamsInfo) checkPackStreams() error {
	declared := 0
	if s.PackInfo != nil {
		declared = len(s.PackInfo.PackSizes)
		if len(s.PackInfo.Digests) != 0 && len(s.PackInfo.Digests) != declared {
			return formatErrorf("pack info", "%d digests for %d pack streams", len(s.PackInfo.Digests), declared)
		}
	}
	consumed := 0
	for i := range s.Folders() {
		consumed += len(s.UnpackInfo.Folders[i].PackedStreams)
	}
	if s.UnpackInfo != nil && consumed != declared {
		return &FormatError{Section: "streams info",
			Err: fmt.Errorf("folders consume %d pack streams, pack info declares %d", consumed, declared)}
	}
	return nil
}
