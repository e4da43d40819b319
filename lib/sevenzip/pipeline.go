// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"
)

// Codec runs the byte transform of a single coder. Implementations are
// keyed by method id; lib/method's Registry is the standard one, and
// callers may supply their own to add or override methods without
// touching the container codec.
type Codec interface {
	// Decode runs the coder backward: inputs are its in-streams (the
	// packed side), outputSizes the expected length of each
	// out-stream. It returns one buffer per out-stream.
	Decode(method []byte, properties []byte, inputs [][]byte, outputSizes []uint64) ([][]byte, error)

	// Encode runs a single-input single-output coder forward and
	// returns the properties to store in the folder with the packed
	// output.
	Encode(method []byte, input []byte) (properties []byte, output []byte, err error)
}

// pipeline is a validated view of a folder's coder graph.
type pipeline struct {
	folder *Folder

	// inStart and outStart hold each coder's first global stream
	// index.
	inStart  []int
	outStart []int

	// outCoder maps a global out-stream index to its coder.
	outCoder []int

	// source maps each global in-stream to the out-stream that feeds
	// it, or to -(packIndex+1) for in-streams fed by a pack stream.
	source []int

	// order lists coder indices so that every coder follows the
	// coders that produce its inputs.
	order []int

	// final is the global index of the unbound out-stream.
	final int
}

// newPipeline checks that the folder is a well-formed coder graph:
//
//   - the coder list is non-empty and every method id is 1 to 15 bytes
//   - UnpackSizes has one entry per out-stream
//   - every bind pair and packed-stream index is in range
//   - every in-stream has exactly one source (a bind pair or a packed
//     stream) and no out-stream is consumed twice
//   - exactly one out-stream is left unbound
//   - the bind pairs form no cycle
//
// Any violation is a *FormatError.
func newPipeline(folder *Folder) (*pipeline, error) {
	const section = "folder graph"
	if len(folder.Coders) == 0 {
		return nil, formatErrorf(section, "folder has no coders")
	}

	p := &pipeline{
		folder:   folder,
		inStart:  make([]int, len(folder.Coders)),
		outStart: make([]int, len(folder.Coders)),
	}
	totalIn, totalOut := 0, 0
	for i := range folder.Coders {
		coder := &folder.Coders[i]
		if n := len(coder.Method); n == 0 || n > coderIDSizeMask {
			return nil, formatErrorf(section, "coder %d method id is %d bytes, want 1..%d", i, n, coderIDSizeMask)
		}
		if coder.NumInStreams < 1 || coder.NumOutStreams < 1 {
			return nil, formatErrorf(section, "coder %d has %d in-streams and %d out-streams", i, coder.NumInStreams, coder.NumOutStreams)
		}
		p.inStart[i] = totalIn
		p.outStart[i] = totalOut
		for range coder.NumOutStreams {
			p.outCoder = append(p.outCoder, i)
		}
		totalIn += coder.NumInStreams
		totalOut += coder.NumOutStreams
	}

	if len(folder.UnpackSizes) != totalOut {
		return nil, formatErrorf(section, "%d unpack sizes for %d out-streams", len(folder.UnpackSizes), totalOut)
	}
	if len(folder.BindPairs)+len(folder.PackedStreams) != totalIn {
		return nil, formatErrorf(section, "%d bind pairs and %d packed streams for %d in-streams",
			len(folder.BindPairs), len(folder.PackedStreams), totalIn)
	}

	const unset = 1 << 30
	p.source = make([]int, totalIn)
	for i := range p.source {
		p.source[i] = unset
	}
	outBound := make([]bool, totalOut)
	for i, pair := range folder.BindPairs {
		if pair.InIndex < 0 || pair.InIndex >= totalIn || pair.OutIndex < 0 || pair.OutIndex >= totalOut {
			return nil, formatErrorf(section, "bind pair %d (in %d, out %d) out of range", i, pair.InIndex, pair.OutIndex)
		}
		if p.source[pair.InIndex] != unset {
			return nil, formatErrorf(section, "in-stream %d has more than one source", pair.InIndex)
		}
		if outBound[pair.OutIndex] {
			return nil, formatErrorf(section, "out-stream %d is bound twice", pair.OutIndex)
		}
		p.source[pair.InIndex] = pair.OutIndex
		outBound[pair.OutIndex] = true
	}
	for i, index := range folder.PackedStreams {
		if index < 0 || index >= totalIn {
			return nil, formatErrorf(section, "packed stream %d names in-stream %d of %d", i, index, totalIn)
		}
		if p.source[index] != unset {
			return nil, formatErrorf(section, "in-stream %d has more than one source", index)
		}
		p.source[index] = -(i + 1)
	}

	p.final = -1
	for out, bound := range outBound {
		if bound {
			continue
		}
		if p.final >= 0 {
			return nil, formatErrorf(section, "out-streams %d and %d are both unbound", p.final, out)
		}
		p.final = out
	}
	if p.final < 0 {
		return nil, formatErrorf(section, "every out-stream is bound, folder has no output")
	}

	if err := p.sort(); err != nil {
		return nil, err
	}
	return p, nil
}

// sort orders coders producer-first with Kahn's algorithm. An edge runs
// from the coder owning a bound out-stream to the coder owning the
// in-stream it feeds.
func (p *pipeline) sort() error {
	coders := p.folder.Coders
	pending := make([]int, len(coders))
	consumers := make([][]int, len(coders))
	for c := range coders {
		for j := range coders[c].NumInStreams {
			source := p.source[p.inStart[c]+j]
			if source < 0 {
				continue
			}
			producer := p.outCoder[source]
			consumers[producer] = append(consumers[producer], c)
			pending[c]++
		}
	}

	ready := make([]int, 0, len(coders))
	for c := range coders {
		if pending[c] == 0 {
			ready = append(ready, c)
		}
	}
	p.order = make([]int, 0, len(coders))
	for len(ready) > 0 {
		c := ready[0]
		ready = ready[1:]
		p.order = append(p.order, c)
		for _, consumer := range consumers[c] {
			pending[consumer]--
			if pending[consumer] == 0 {
				ready = append(ready, consumer)
			}
		}
	}
	if len(p.order) != len(coders) {
		return formatErrorf("folder graph", "bind pairs form a cycle through %d coders", len(coders)-len(p.order))
	}
	return nil
}

// Decode runs the folder's coders and returns its final output. packed
// holds the folder's pack streams in PackedStreams order. Coder
// failures are reported as a *CodecError naming the coder; a graph that
// fails [Folder.Validate] is a *FormatError. The folder CRC is not
// checked here.
func (f *Folder) Decode(codec Codec, packed [][]byte) ([]byte, error) {
	p, err := newPipeline(f)
	if err != nil {
		return nil, err
	}
	if len(packed) != len(f.PackedStreams) {
		return nil, formatErrorf("folder", "%d pack streams supplied for %d packed inputs", len(packed), len(f.PackedStreams))
	}

	outputs := make([][]byte, f.TotalOutStreams())
	for _, c := range p.order {
		coder := &f.Coders[c]
		inputs := make([][]byte, coder.NumInStreams)
		for j := range inputs {
			source := p.source[p.inStart[c]+j]
			if source < 0 {
				inputs[j] = packed[-source-1]
			} else {
				inputs[j] = outputs[source]
			}
		}
		sizes := f.UnpackSizes[p.outStart[c] : p.outStart[c]+coder.NumOutStreams]

		results, err := codec.Decode([]byte(coder.Method), coder.Properties, inputs, sizes)
		if err != nil {
			return nil, &CodecError{Coder: c, Method: coder.Method, Err: err}
		}
		if len(results) != coder.NumOutStreams {
			return nil, &CodecError{Coder: c, Method: coder.Method,
				Err: fmt.Errorf("returned %d outputs, coder has %d", len(results), coder.NumOutStreams)}
		}
		for j, result := range results {
			if uint64(len(result)) != sizes[j] {
				return nil, &CodecError{Coder: c, Method: coder.Method,
					Err: fmt.Errorf("output %d is %d bytes, want %d", j, len(result), sizes[j])}
			}
			outputs[p.outStart[c]+j] = result
		}

		// Intermediate buffers are consumed exactly once.
		for j := range inputs {
			if source := p.source[p.inStart[c]+j]; source >= 0 {
				outputs[source] = nil
			}
		}
	}
	return outputs[p.final], nil
}
