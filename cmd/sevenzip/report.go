// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bureau-foundation/sevenzip/lib/checksum"
	"github.com/bureau-foundation/sevenzip/lib/method"
	"github.com/bureau-foundation/sevenzip/lib/sevenzip"
)

// headerReport is the serializable form of a parsed archive header.
// Undefined optional values become nil pointers and are omitted.
type headerReport struct {
	Signature         signatureReport   `json:"signature" yaml:"signature"`
	EncodedHeader     bool              `json:"encoded_header" yaml:"encoded_header"`
	ArchiveProperties []propertyReport  `json:"archive_properties,omitempty" yaml:"archive_properties,omitempty"`
	PackInfo          *packInfoReport   `json:"pack_info,omitempty" yaml:"pack_info,omitempty"`
	Folders           []folderReport    `json:"folders" yaml:"folders"`
	Substreams        []substreamReport `json:"substreams" yaml:"substreams"`
	Files             []fileReport      `json:"files" yaml:"files"`
}

type signatureReport struct {
	Version          string `json:"version" yaml:"version"`
	StartHeaderCRC   string `json:"start_header_crc" yaml:"start_header_crc"`
	NextHeaderOffset uint64 `json:"next_header_offset" yaml:"next_header_offset"`
	NextHeaderSize   uint64 `json:"next_header_size" yaml:"next_header_size"`
	NextHeaderCRC    string `json:"next_header_crc" yaml:"next_header_crc"`
}

type propertyReport struct {
	Type byte   `json:"type" yaml:"type"`
	Data string `json:"data" yaml:"data"`
}

type packInfoReport struct {
	PackPos uint64    `json:"pack_pos" yaml:"pack_pos"`
	Sizes   []uint64  `json:"sizes" yaml:"sizes"`
	Digests []*string `json:"digests,omitempty" yaml:"digests,omitempty"`
}

type folderReport struct {
	Coders        []coderReport    `json:"coders" yaml:"coders"`
	BindPairs     []bindPairReport `json:"bind_pairs,omitempty" yaml:"bind_pairs,omitempty"`
	PackedStreams []int            `json:"packed_streams" yaml:"packed_streams"`
	UnpackSizes   []uint64         `json:"unpack_sizes" yaml:"unpack_sizes"`
	CRC           *string          `json:"crc,omitempty" yaml:"crc,omitempty"`
}

type coderReport struct {
	Method        string `json:"method" yaml:"method"`
	ID            string `json:"id" yaml:"id"`
	NumInStreams  int    `json:"num_in_streams" yaml:"num_in_streams"`
	NumOutStreams int    `json:"num_out_streams" yaml:"num_out_streams"`
	Properties    string `json:"properties,omitempty" yaml:"properties,omitempty"`
}

type bindPairReport struct {
	InIndex  int `json:"in_index" yaml:"in_index"`
	OutIndex int `json:"out_index" yaml:"out_index"`
}

type substreamReport struct {
	Folder int     `json:"folder" yaml:"folder"`
	Size   uint64  `json:"size" yaml:"size"`
	CRC    *string `json:"crc,omitempty" yaml:"crc,omitempty"`
}

type fileReport struct {
	Name       string     `json:"name" yaml:"name"`
	HasStream  bool       `json:"has_stream" yaml:"has_stream"`
	EmptyFile  bool       `json:"empty_file,omitempty" yaml:"empty_file,omitempty"`
	Anti       bool       `json:"anti,omitempty" yaml:"anti,omitempty"`
	Directory  bool       `json:"directory,omitempty" yaml:"directory,omitempty"`
	Mode       string     `json:"mode" yaml:"mode"`
	Attributes *string    `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Created    *time.Time `json:"created,omitempty" yaml:"created,omitempty"`
	Accessed   *time.Time `json:"accessed,omitempty" yaml:"accessed,omitempty"`
	Modified   *time.Time `json:"modified,omitempty" yaml:"modified,omitempty"`
	StartPos   *uint64    `json:"start_pos,omitempty" yaml:"start_pos,omitempty"`
}

func newHeaderReport(reader *sevenzip.Reader, registry *method.Registry) headerReport {
	signature := reader.Signature()
	header := reader.Header()
	report := headerReport{
		Signature: signatureReport{
			Version:          signature.Version.String(),
			StartHeaderCRC:   checksum.FormatDigest(signature.StartHeaderCRC),
			NextHeaderOffset: signature.NextHeaderOffset,
			NextHeaderSize:   signature.NextHeaderSize,
			NextHeaderCRC:    checksum.FormatDigest(signature.NextHeaderCRC),
		},
		EncodedHeader: reader.HeaderEncoded(),
		Folders:       []folderReport{},
		Substreams:    []substreamReport{},
		Files:         []fileReport{},
	}

	if header.ArchiveProperties != nil {
		for _, property := range header.ArchiveProperties.Properties {
			report.ArchiveProperties = append(report.ArchiveProperties, propertyReport{
				Type: property.Type,
				Data: hex.EncodeToString(property.Data),
			})
		}
	}

	if streams := header.MainStreams; streams != nil {
		if streams.PackInfo != nil {
			report.PackInfo = &packInfoReport{
				PackPos: streams.PackInfo.PackPos,
				Sizes:   streams.PackInfo.PackSizes,
			}
			for _, digest := range streams.PackInfo.Digests {
				report.PackInfo.Digests = append(report.PackInfo.Digests, digestReport(digest))
			}
		}
		for i := range streams.Folders() {
			report.Folders = append(report.Folders, newFolderReport(&streams.Folders()[i], registry))
		}
		info := streams.Substreams()
		for folder := range streams.Folders() {
			start, end := info.FolderRange(folder)
			for i := start; i < end; i++ {
				substream := substreamReport{Folder: folder, Size: info.UnpackSizes[i]}
				if i < len(info.Digests) {
					substream.CRC = digestReport(info.Digests[i])
				}
				report.Substreams = append(report.Substreams, substream)
			}
		}
	}

	for i := range header.Files() {
		report.Files = append(report.Files, newFileReport(&header.Files()[i]))
	}
	return report
}

func newFolderReport(folder *sevenzip.Folder, registry *method.Registry) folderReport {
	report := folderReport{
		PackedStreams: folder.PackedStreams,
		UnpackSizes:   folder.UnpackSizes,
		CRC:           digestReport(folder.CRC),
	}
	for _, coder := range folder.Coders {
		report.Coders = append(report.Coders, coderReport{
			Method:        registry.Name(coder.Method),
			ID:            coder.Method.String(),
			NumInStreams:  coder.NumInStreams,
			NumOutStreams: coder.NumOutStreams,
			Properties:    hex.EncodeToString(coder.Properties),
		})
	}
	for _, pair := range folder.BindPairs {
		report.BindPairs = append(report.BindPairs, bindPairReport{InIndex: pair.InIndex, OutIndex: pair.OutIndex})
	}
	return report
}

func newFileReport(file *sevenzip.File) fileReport {
	report := fileReport{
		Name:      file.Name,
		HasStream: file.HasStream,
		EmptyFile: file.IsEmptyFile,
		Anti:      file.IsAnti,
		Directory: file.IsDir(),
		Mode:      file.Mode().String(),
		Created:   timeReport(file.CreationTime),
		Accessed:  timeReport(file.AccessTime),
		Modified:  timeReport(file.ModificationTime),
	}
	if attributes, ok := file.Attributes.Get(); ok {
		formatted := fmt.Sprintf("0x%08x", attributes)
		report.Attributes = &formatted
	}
	if position, ok := file.StartPos.Get(); ok {
		report.StartPos = &position
	}
	return report
}

func digestReport(digest sevenzip.Optional[uint32]) *string {
	value, ok := digest.Get()
	if !ok {
		return nil
	}
	formatted := checksum.FormatDigest(value)
	return &formatted
}

func timeReport(filetime sevenzip.Optional[sevenzip.Filetime]) *time.Time {
	value, ok := filetime.Get()
	if !ok {
		return nil
	}
	converted := value.Time()
	return &converted
}

// methodChain names the coders of a folder in chain order, as in
// "bcj lzma2".
func methodChain(folder *sevenzip.Folder, registry *method.Registry) string {
	names := make([]string, len(folder.Coders))
	for i, coder := range folder.Coders {
		names[i] = registry.Name(coder.Method)
	}
	return strings.Join(names, " ")
}
