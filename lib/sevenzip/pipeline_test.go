// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/sevenzip/lib/method"
	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// graphCodec implements test coders with simple, checkable transforms:
//
//	"j" joins all inputs into one output
//	"u" upper-cases its single input
//	"x" fails
type graphCodec struct{}

func (graphCodec) Decode(id []byte, _ []byte, inputs [][]byte, sizes []uint64) ([][]byte, error) {
	switch string(id) {
	case "j":
		return [][]byte{bytes.Join(inputs, nil)}, nil
	case "u":
		return [][]byte{bytes.ToUpper(inputs[0])}, nil
	case "x":
		return nil, errors.New("broken coder")
	}
	return nil, method.ErrUnsupported
}

func (graphCodec) Encode(id []byte, input []byte) ([]byte, []byte, error) {
	if string(id) == "u" {
		return nil, bytes.ToLower(input), nil
	}
	return nil, nil, method.ErrUnsupported
}

func simpleCoder(id string) Coder {
	return Coder{Method: method.ID(id), NumInStreams: 1, NumOutStreams: 1}
}

// joinFolder is a two-input graph in the shape of BCJ2: coder 0 joins
// the outputs of coders 1 and 2, each of which reads its own pack
// stream.
func joinFolder(a, b string) *Folder {
	return &Folder{
		Coders: []Coder{
			{Method: "j", NumInStreams: 2, NumOutStreams: 1},
			simpleCoder("u"),
			simpleCoder("u"),
		},
		BindPairs:     []BindPair{{InIndex: 0, OutIndex: 1}, {InIndex: 1, OutIndex: 2}},
		PackedStreams: []int{2, 3},
		UnpackSizes:   []uint64{uint64(len(a) + len(b)), uint64(len(a)), uint64(len(b))},
	}
}

func TestDecodeMultiInputGraph(t *testing.T) {
	folder := joinFolder("hello ", "world")
	output, err := folder.Decode(graphCodec{}, [][]byte{[]byte("hello "), []byte("world")})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(output) != "HELLO WORLD" {
		t.Errorf("output = %q", output)
	}
	if folder.UnpackSize() != 11 {
		t.Errorf("UnpackSize = %d", folder.UnpackSize())
	}
}

func TestMultiInputFolderRoundTrip(t *testing.T) {
	folder := joinFolder("ab", "cd")
	var b wire.Buffer
	folder.Write(&b)

	parsed, err := ReadFolder(wire.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("ReadFolder: %v", err)
	}
	if !reflect.DeepEqual(parsed.Coders, folder.Coders) ||
		!reflect.DeepEqual(parsed.BindPairs, folder.BindPairs) ||
		!reflect.DeepEqual(parsed.PackedStreams, folder.PackedStreams) {
		t.Errorf("round trip = %+v, want %+v", parsed, folder)
	}
	// The complex coder flag carries explicit stream counts.
	if b.Bytes()[1] != coderComplex|1 {
		t.Errorf("first coder flags = %02x", b.Bytes()[1])
	}
}

func TestDecodeOrdersCodersTopologically(t *testing.T) {
	// Coder 0 is the final coder but is listed first; coder 1 feeds it.
	folder := &Folder{
		Coders:        []Coder{simpleCoder("u"), simpleCoder("j")},
		BindPairs:     []BindPair{{InIndex: 0, OutIndex: 1}},
		PackedStreams: []int{1},
		UnpackSizes:   []uint64{3, 3},
	}
	p, err := newPipeline(folder)
	if err != nil {
		t.Fatalf("newPipeline: %v", err)
	}
	if !reflect.DeepEqual(p.order, []int{1, 0}) {
		t.Errorf("order = %v, want [1 0]", p.order)
	}
	output, err := folder.Decode(graphCodec{}, [][]byte{[]byte("abc")})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(output) != "ABC" {
		t.Errorf("output = %q", output)
	}
}

func TestValidateRejectsMalformedGraphs(t *testing.T) {
	tests := []struct {
		name   string
		folder *Folder
		want   string
	}{
		{
			name:   "no coders",
			folder: &Folder{},
			want:   "no coders",
		},
		{
			name: "two unbound outputs",
			folder: &Folder{
				Coders:        []Coder{simpleCoder("u"), simpleCoder("u")},
				PackedStreams: []int{0, 1},
				UnpackSizes:   []uint64{1, 1},
			},
			want: "both unbound",
		},
		{
			name: "in-stream fed twice",
			folder: &Folder{
				Coders:        []Coder{simpleCoder("u"), simpleCoder("u")},
				BindPairs:     []BindPair{{InIndex: 0, OutIndex: 1}},
				PackedStreams: []int{0},
				UnpackSizes:   []uint64{1, 1},
			},
			want: "more than one source",
		},
		{
			name: "cycle",
			folder: &Folder{
				Coders: []Coder{
					simpleCoder("u"),
					{Method: "j", NumInStreams: 2, NumOutStreams: 1},
					{Method: "s", NumInStreams: 1, NumOutStreams: 2},
				},
				// Coder 1 feeds coder 2 and coder 2 feeds coder 1.
				BindPairs: []BindPair{
					{InIndex: 0, OutIndex: 3},
					{InIndex: 1, OutIndex: 2},
					{InIndex: 3, OutIndex: 1},
				},
				PackedStreams: []int{2},
				UnpackSizes:   []uint64{1, 1, 1, 1},
			},
			want: "cycle",
		},
		{
			name: "bind pair out of range",
			folder: &Folder{
				Coders:        []Coder{simpleCoder("u"), simpleCoder("u")},
				BindPairs:     []BindPair{{InIndex: 0, OutIndex: 5}},
				PackedStreams: []int{1},
				UnpackSizes:   []uint64{1, 1},
			},
			want: "out of range",
		},
		{
			name: "missing unpack sizes",
			folder: &Folder{
				Coders:        []Coder{simpleCoder("u")},
				PackedStreams: []int{0},
			},
			want: "unpack sizes",
		},
		{
			name: "method id too long",
			folder: &Folder{
				Coders:        []Coder{simpleCoder(strings.Repeat("m", 16))},
				PackedStreams: []int{0},
				UnpackSizes:   []uint64{1},
			},
			want: "method id",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.folder.Validate()
			if !IsFormatError(err) {
				t.Fatalf("Validate = %v, want FormatError", err)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("Validate = %v, want mention of %q", err, test.want)
			}
			if _, err := test.folder.Decode(graphCodec{}, nil); !IsFormatError(err) {
				t.Errorf("Decode = %v, want FormatError", err)
			}
		})
	}
}

func TestDecodeReportsFailingCoder(t *testing.T) {
	folder := &Folder{
		Coders:        []Coder{simpleCoder("u"), simpleCoder("x")},
		BindPairs:     []BindPair{{InIndex: 0, OutIndex: 1}},
		PackedStreams: []int{1},
		UnpackSizes:   []uint64{1, 1},
	}
	_, err := folder.Decode(graphCodec{}, [][]byte{{'a'}})
	var codecError *CodecError
	if !errors.As(err, &codecError) {
		t.Fatalf("Decode = %v, want CodecError", err)
	}
	if codecError.Coder != 1 || codecError.Method != "x" {
		t.Errorf("CodecError = %+v", codecError)
	}
}

func TestDecodeRejectsWrongOutputSize(t *testing.T) {
	folder := &Folder{
		Coders:        []Coder{simpleCoder("u")},
		PackedStreams: []int{0},
		UnpackSizes:   []uint64{10},
	}
	_, err := folder.Decode(graphCodec{}, [][]byte{[]byte("abc")})
	if !IsCodecError(err) {
		t.Errorf("Decode = %v, want CodecError", err)
	}
}

func TestDecodeRejectsWrongPackCount(t *testing.T) {
	folder := joinFolder("a", "b")
	if _, err := folder.Decode(graphCodec{}, [][]byte{[]byte("a")}); !IsFormatError(err) {
		t.Errorf("Decode = %v, want FormatError", err)
	}
}

func TestEncodeFolderChainLayout(t *testing.T) {
	registry := method.NewRegistry(method.Options{})
	data := bytes.Repeat([]byte("chain layout "), 200)

	folder, packed, err := EncodeFolder(registry, data, []byte(method.BCJ), []byte(method.LZMA2))
	if err != nil {
		t.Fatalf("EncodeFolder: %v", err)
	}
	if folder.Coders[0].Method != method.BCJ || folder.Coders[1].Method != method.LZMA2 {
		t.Errorf("coders = %s, %s", folder.Coders[0].Method, folder.Coders[1].Method)
	}
	if !reflect.DeepEqual(folder.BindPairs, []BindPair{{InIndex: 0, OutIndex: 1}}) {
		t.Errorf("BindPairs = %v", folder.BindPairs)
	}
	if !reflect.DeepEqual(folder.PackedStreams, []int{1}) {
		t.Errorf("PackedStreams = %v", folder.PackedStreams)
	}
	if folder.UnpackSize() != uint64(len(data)) || folder.UnpackSizes[1] != uint64(len(data)) {
		t.Errorf("UnpackSizes = %v", folder.UnpackSizes)
	}

	output, err := folder.Decode(registry, [][]byte{packed})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(output, data) {
		t.Fatal("decoded output differs from input")
	}
	if err := verifyCRC("folder", output, folder.CRC.Value); err != nil {
		t.Error(err)
	}
}

func TestEncodeFolderErrors(t *testing.T) {
	if _, _, err := EncodeFolder(graphCodec{}, []byte("x")); err == nil {
		t.Error("empty chain accepted")
	}
	_, _, err := EncodeFolder(graphCodec{}, []byte("x"), []byte("u"), []byte("?"))
	var codecError *CodecError
	if !errors.As(err, &codecError) || codecError.Coder != 1 {
		t.Errorf("EncodeFolder = %v, want CodecError for coder 1", err)
	}
	if !errors.Is(err, method.ErrUnsupported) {
		t.Errorf("EncodeFolder = %v, want it to wrap ErrUnsupported", err)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&FormatError{Section: "pack info", Err: errors.New("bad")}, "7z format error in pack info: bad"},
		{&IntegrityError{Subject: "folder 0", Expected: 1, Actual: 2}, "folder 0 crc32 is 00000002, header says 00000001"},
		{&CodecError{Coder: 1, Method: method.LZMA, Err: errors.New("corrupt")}, "coder 1 (method 03 01 01): corrupt"},
		{&UnsupportedFeatureError{Feature: "additional streams"}, "not supported: additional streams"},
	}
	for _, test := range tests {
		if !strings.Contains(test.err.Error(), test.want) {
			t.Errorf("Error() = %q, want it to contain %q", test.err.Error(), test.want)
		}
	}

	wrapped := inSection("outer", fmt.Errorf("inner: %w", unsupported("x")))
	if !IsUnsupported(wrapped) || IsFormatError(wrapped) {
		t.Errorf("inSection changed the error type: %v", wrapped)
	}
}

func TestVerifyCRC(t *testing.T) {
	data := []byte("abcd")
	if err := verifyCRC("pack stream 0", data, 0xed82cd11); err != nil {
		t.Fatalf("verifyCRC(match) = %v", err)
	}

	err := verifyCRC("pack stream 0", data, 1)
	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("verifyCRC(mismatch) = %v, want IntegrityError", err)
	}
	want := IntegrityError{Subject: "pack stream 0", Expected: 1, Actual: 0xed82cd11}
	if *integrity != want {
		t.Errorf("IntegrityError = %+v, want %+v", *integrity, want)
	}
}
