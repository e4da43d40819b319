// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/sevenzip/lib/checksum"
	"github.com/bureau-foundation/sevenzip/lib/method"
)

// EncodeFolder runs data through a linear chain of single-stream
// coders and returns the folder describing it with the one pack stream
// it produced. methods[0] is applied first and sits closest to the
// unpacked data: for BCJ followed by LZMA, pass (BCJ, LZMA). Coder i
// reads its in-stream from coder i+1's out-stream, and the last
// coder's in-stream is the pack stream. The folder's CRC covers data.
func EncodeFolder(codec Codec, data []byte, methods ...[]byte) (*Folder, []byte, error) {
	if len(methods) == 0 {
		return nil, nil, errors.New("encoding folder: empty coder chain")
	}
	if len(methods) > maxCodersPerFolder {
		return nil, nil, fmt.Errorf("encoding folder: %d coders exceed %d", len(methods), maxCodersPerFolder)
	}

	folder := &Folder{
		Coders:        make([]Coder, len(methods)),
		BindPairs:     make([]BindPair, len(methods)-1),
		PackedStreams: []int{len(methods) - 1},
		UnpackSizes:   make([]uint64, len(methods)),
		CRC:           Some(checksum.Sum(data)),
	}

	current := data
	for i, id := range methods {
		folder.UnpackSizes[i] = uint64(len(current))
		properties, output, err := codec.Encode(id, current)
		if err != nil {
			return nil, nil, &CodecError{Coder: i, Method: method.ID(id), Err: err}
		}
		folder.Coders[i] = Coder{
			Method:        method.ID(append([]byte(nil), id...)),
			NumInStreams:  1,
			NumOutStreams: 1,
			Properties:    properties,
		}
		if i > 0 {
			folder.BindPairs[i-1] = BindPair{InIndex: i - 1, OutIndex: i}
		}
		current = output
	}

	if err := folder.Validate(); err != nil {
		return nil, nil, err
	}
	return folder, current, nil
}

// readFolderPackStreams reads the pack streams of folder from source.
// base is the absolute offset that pack positions are relative to,
// normally [SignatureHeaderSize]. Stored pack stream CRCs are
// verified.
func readFolderPackStreams(source io.ReaderAt, base int64, streams *StreamsInfo, folder int) ([][]byte, error) {
	if streams.PackInfo == nil {
		return nil, formatErrorf("pack info", "folder %d has no pack streams to read", folder)
	}
	pack := streams.PackInfo
	first := streams.FirstPackStream(folder)
	count := len(streams.UnpackInfo.Folders[folder].PackedStreams)
	if first+count > len(pack.PackSizes) {
		return nil, formatErrorf("pack info", "folder %d needs pack streams %d..%d of %d", folder, first, first+count-1, len(pack.PackSizes))
	}

	packed := make([][]byte, count)
	for i := range packed {
		index := first + i
		offset := pack.StreamOffset(index)
		size := pack.PackSizes[index]
		if offset > 1<<62 || size > 1<<62 {
			return nil, formatErrorf("pack info", "pack stream %d at %d size %d out of range", index, offset, size)
		}
		data, err := io.ReadAll(io.NewSectionReader(source, base+int64(offset), int64(size)))
		if err != nil {
			return nil, fmt.Errorf("reading pack stream %d: %w", index, err)
		}
		if uint64(len(data)) != size {
			return nil, formatErrorf("pack info", "pack stream %d is truncated: %d of %d bytes", index, len(data), size)
		}
		if index < len(pack.Digests) && pack.Digests[index].Valid {
			if err := verifyCRC(fmt.Sprintf("pack stream %d", index), data, pack.Digests[index].Value); err != nil {
				return nil, err
			}
		}
		packed[i] = data
	}
	return packed, nil
}
