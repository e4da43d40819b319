// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/method"
	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// Coder flag byte layout.
const (
	coderIDSizeMask     = 0x0f
	coderComplex        = 0x10
	coderHasProperties  = 0x20
	coderAlternative    = 0x80
	maxStreamsPerCoder  = 64
	maxCodersPerFolder  = 64
	maxStreamsPerFolder = 64
)

// Coder is one transform in a folder. In-streams are on the packed
// side and out-streams on the unpacked side; a simple coder has one of
// each.
type Coder struct {
	// Method is the method id, 1 to 15 bytes.
	Method method.ID

	NumInStreams  int
	NumOutStreams int

	// Properties is the method's opaque parameter block (LZMA's five
	// header bytes, the AES salt and IV). Nil when absent.
	Properties []byte
}

// IsSimple reports whether the coder has exactly one in-stream and one
// out-stream, the case the flag byte encodes without explicit counts.
func (c *Coder) IsSimple() bool {
	return c.NumInStreams == 1 && c.NumOutStreams == 1
}

// BindPair connects coder streams inside a folder: the in-stream at
// global index InIndex reads the bytes produced by the out-stream at
// global index OutIndex. Global indices number streams across coders
// in coder order.
type BindPair struct {
	InIndex  int
	OutIndex int
}

// Folder is a self-contained decode unit: a graph of coders whose
// unbound in-streams read pack streams and whose single unbound
// out-stream is the folder's unpacked data.
type Folder struct {
	Coders    []Coder
	BindPairs []BindPair

	// PackedStreams lists, in pack-stream order, the global in-stream
	// index each of the folder's pack streams feeds.
	PackedStreams []int

	// UnpackSizes holds the size of every out-stream, by global index.
	UnpackSizes []uint64

	// CRC is the CRC-32 of the folder's final output, when stored.
	CRC Optional[uint32]
}

// TotalInStreams is the sum of the coders' in-stream counts.
func (f *Folder) TotalInStreams() int {
	total := 0
	for i := range f.Coders {
		total += f.Coders[i].NumInStreams
	}
	return total
}

// TotalOutStreams is the sum of the coders' out-stream counts.
func (f *Folder) TotalOutStreams() int {
	total := 0
	for i := range f.Coders {
		total += f.Coders[i].NumOutStreams
	}
	return total
}

// FinalOutStream returns the global index of the out-stream that no
// bind pair consumes, or -1 when there is not exactly one.
func (f *Folder) FinalOutStream() int {
	bound := make(map[int]bool, len(f.BindPairs))
	for _, pair := range f.BindPairs {
		bound[pair.OutIndex] = true
	}
	final := -1
	for out := 0; out < f.TotalOutStreams(); out++ {
		if bound[out] {
			continue
		}
		if final >= 0 {
			return -1
		}
		final = out
	}
	return final
}

// UnpackSize is the size of the folder's final output: the unpack size
// of its unbound out-stream. It is zero for a malformed folder.
func (f *Folder) UnpackSize() uint64 {
	final := f.FinalOutStream()
	if final < 0 || final >= len(f.UnpackSizes) {
		return 0
	}
	return f.UnpackSizes[final]
}

// Validate checks the folder's graph invariants. See [newPipeline].
func (f *Folder) Validate() error {
	_, err := newPipeline(f)
	return err
}

// ReadFolder parses one folder's coder layout, starting at the coder
// count. Unpack sizes and the CRC live elsewhere in UnpackInfo and are
// left empty.
func ReadFolder(r *wire.Reader) (*Folder, error) {
	const section = "folder"
	numCoders, err := r.Count(2)
	if err != nil {
		return nil, inSection(section, fmt.Errorf("reading coder count: %w", err))
	}
	if numCoders == 0 || numCoders > maxCodersPerFolder {
		return nil, formatErrorf(section, "coder count %d outside 1..%d", numCoders, maxCodersPerFolder)
	}

	folder := &Folder{Coders: make([]Coder, numCoders)}
	for i := range folder.Coders {
		if err := readCoder(r, &folder.Coders[i]); err != nil {
			return nil, inSection(fmt.Sprintf("%s coder %d", section, i), err)
		}
	}

	totalIn := folder.TotalInStreams()
	totalOut := folder.TotalOutStreams()
	if totalIn > maxStreamsPerFolder || totalOut > maxStreamsPerFolder {
		return nil, formatErrorf(section, "%d in-streams and %d out-streams exceed %d", totalIn, totalOut, maxStreamsPerFolder)
	}

	numBindPairs := totalOut - 1
	folder.BindPairs = make([]BindPair, numBindPairs)
	for i := range folder.BindPairs {
		inIndex, err := r.Number()
		if err != nil {
			return nil, inSection(section, fmt.Errorf("reading bind pair %d: %w", i, err))
		}
		outIndex, err := r.Number()
		if err != nil {
			return nil, inSection(section, fmt.Errorf("reading bind pair %d: %w", i, err))
		}
		if inIndex >= uint64(totalIn) || outIndex >= uint64(totalOut) {
			return nil, formatErrorf(section, "bind pair %d (in %d, out %d) out of range", i, inIndex, outIndex)
		}
		folder.BindPairs[i] = BindPair{InIndex: int(inIndex), OutIndex: int(outIndex)}
	}

	numPacked := totalIn - numBindPairs
	if numPacked < 1 {
		return nil, formatErrorf(section, "%d in-streams cannot serve %d bind pairs and a pack stream", totalIn, numBindPairs)
	}
	folder.PackedStreams = make([]int, numPacked)
	if numPacked == 1 {
		// The single packed stream is implicit: the in-stream no bind
		// pair feeds.
		free := -1
		for in := 0; in < totalIn && free < 0; in++ {
			if folder.inStreamBound(in) < 0 {
				free = in
			}
		}
		if free < 0 {
			return nil, formatErrorf(section, "every in-stream is bound, none left for the pack stream")
		}
		folder.PackedStreams[0] = free
	} else {
		for i := range folder.PackedStreams {
			index, err := r.Number()
			if err != nil {
				return nil, inSection(section, fmt.Errorf("reading packed stream %d: %w", i, err))
			}
			if index >= uint64(totalIn) {
				return nil, formatErrorf(section, "packed stream %d names in-stream %d of %d", i, index, totalIn)
			}
			folder.PackedStreams[i] = int(index)
		}
	}
	return folder, nil
}

func readCoder(r *wire.Reader, coder *Coder) error {
	flags, err := r.Byte()
	if err != nil {
		return fmt.Errorf("reading flags: %w", err)
	}
	if flags&coderAlternative != 0 {
		return unsupported("alternative coder methods")
	}
	id, err := r.Bytes(uint64(flags & coderIDSizeMask))
	if err != nil {
		return fmt.Errorf("reading method id: %w", err)
	}
	coder.Method = method.ID(id)

	coder.NumInStreams, coder.NumOutStreams = 1, 1
	if flags&coderComplex != 0 {
		if coder.NumInStreams, err = readStreamCount(r, "in"); err != nil {
			return err
		}
		if coder.NumOutStreams, err = readStreamCount(r, "out"); err != nil {
			return err
		}
	}

	if flags&coderHasProperties != 0 {
		size, err := r.Number()
		if err != nil {
			return fmt.Errorf("reading properties size: %w", err)
		}
		properties, err := r.Bytes(size)
		if err != nil {
			return fmt.Errorf("reading properties: %w", err)
		}
		coder.Properties = append([]byte{}, properties...)
	}
	return nil
}

func readStreamCount(r *wire.Reader, direction string) (int, error) {
	count, err := r.Number()
	if err != nil {
		return 0, fmt.Errorf("reading %s-stream count: %w", direction, err)
	}
	if count == 0 || count > maxStreamsPerCoder {
		return 0, formatErrorf("coder", "%s-stream count %d outside 1..%d", direction, count, maxStreamsPerCoder)
	}
	return int(count), nil
}

// Write appends the folder's coder layout: coder count, coders, bind
// pairs, and the packed-stream list when it is not implicit.
func (f *Folder) Write(b *wire.Buffer) {
	b.Number(uint64(len(f.Coders)))
	for i := range f.Coders {
		coder := &f.Coders[i]
		flags := byte(len(coder.Method)) & coderIDSizeMask
		if !coder.IsSimple() {
			flags |= coderComplex
		}
		if coder.Properties != nil {
			flags |= coderHasProperties
		}
		b.Byte(flags)
		b.Raw([]byte(coder.Method))
		if !coder.IsSimple() {
			b.Number(uint64(coder.NumInStreams))
			b.Number(uint64(coder.NumOutStreams))
		}
		if coder.Properties != nil {
			b.Number(uint64(len(coder.Properties)))
			b.Raw(coder.Properties)
		}
	}
	for _, pair := range f.BindPairs {
		b.Number(uint64(pair.InIndex))
		b.Number(uint64(pair.OutIndex))
	}
	if len(f.PackedStreams) > 1 {
		for _, index := range f.PackedStreams {
			b.Number(uint64(index))
		}
	}
}

// inStreamBound returns the bind pair feeding in-stream index, or -1.
func (f *Folder) inStreamBound(index int) int {
	for i, pair := range f.BindPairs {
		if pair.InIndex == index {
			return i
		}
	}
	return -1
}
