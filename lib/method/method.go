// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package method

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
)

// ErrUnsupported is returned (wrapped) for method ids the registry
// does not know, for decode-only methods asked to encode, and for
// stream arities the method cannot handle.
var ErrUnsupported = errors.New("unsupported coder method")

// ErrPasswordRequired is returned (wrapped) when an encrypted coder is
// decoded or encoded without a password.
var ErrPasswordRequired = errors.New("password required")

// ID is a coder method id as stored in a 7z header: up to 15 opaque
// bytes, compared bytewise. It is a string so that it can key maps.
type ID string

// String returns the id as spaced hex ("03 01 01").
func (id ID) String() string {
	if id == "" {
		return "(empty)"
	}
	encoded := hex.EncodeToString([]byte(id))
	var spaced []byte
	for i := 0; i < len(encoded); i += 2 {
		if i > 0 {
			spaced = append(spaced, ' ')
		}
		spaced = append(spaced, encoded[i:i+2]...)
	}
	return string(spaced)
}

// Options configures decoding and encoding for every method in a
// registry.
type Options struct {
	// Password unlocks 7zAES coders. Empty means no password.
	Password string

	// Level is the compression level for encoders that have one.
	// Zero selects each encoder's default.
	Level int

	// DictSize is the LZMA/LZMA2 dictionary size for encoding. Zero
	// selects 8 MiB.
	DictSize uint32

	// DeltaDistance is the byte distance for Delta encoding. Zero
	// selects 1.
	DeltaDistance int
}

// DecodeFunc reverses one coder. properties are the coder's property
// bytes from the header, outputSize the declared unpack size. The
// result must be exactly outputSize bytes long.
type DecodeFunc func(options *Options, properties []byte, input []byte, outputSize uint64) ([]byte, error)

// EncodeFunc applies one coder, returning the property bytes to store
// in the header alongside the packed output.
type EncodeFunc func(options *Options, input []byte) (properties []byte, output []byte, err error)

// Method describes one coder implementation.
type Method struct {
	// ID is the method id stored in coder records.
	ID ID

	// Name is the short configuration name ("lzma2", "bcj").
	Name string

	// Decode is required.
	Decode DecodeFunc

	// Encode is nil for decode-only methods.
	Encode EncodeFunc
}

// Registry maps method ids to implementations. A Registry is safe for
// concurrent use: folders may be decoded in parallel against one
// registry.
type Registry struct {
	options Options

	mutex   sync.RWMutex
	methods map[ID]Method
	names   map[string]ID
}

// NewRegistry returns a registry with every built-in method registered.
func NewRegistry(options Options) *Registry {
	registry := &Registry{
		options: options,
		methods: make(map[ID]Method),
		names:   make(map[string]ID),
	}
	for _, builtin := range builtins() {
		if err := registry.Register(builtin); err != nil {
			panic("method: registering built-in " + builtin.Name + ": " + err.Error())
		}
	}
	return registry
}

// Register adds a method. Registering an id or name twice is an error.
func (r *Registry) Register(method Method) error {
	if method.ID == "" || len(method.ID) > 15 {
		return fmt.Errorf("method %q: id must be 1 to 15 bytes, got %d", method.Name, len(method.ID))
	}
	if method.Decode == nil {
		return fmt.Errorf("method %q: Decode is required", method.Name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if existing, ok := r.methods[method.ID]; ok {
		return fmt.Errorf("method id %s already registered as %q", method.ID, existing.Name)
	}
	if _, ok := r.names[method.Name]; ok {
		return fmt.Errorf("method name %q already registered", method.Name)
	}
	r.methods[method.ID] = method
	r.names[method.Name] = method.ID
	return nil
}

// Lookup returns the method registered under id.
func (r *Registry) Lookup(id ID) (Method, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	method, ok := r.methods[id]
	return method, ok
}

// LookupName returns the method registered under a configuration name.
func (r *Registry) LookupName(name string) (Method, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	id, ok := r.names[name]
	if !ok {
		return Method{}, false
	}
	return r.methods[id], true
}

// Name returns the configuration name for id, or the hex id when the
// method is unknown.
func (r *Registry) Name(id ID) string {
	if method, ok := r.Lookup(id); ok {
		return method.Name
	}
	return id.String()
}

// Names returns the registered configuration names, sorted.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode runs the method identified by id over inputs, producing one
// output per entry in outputSizes. Only single-input, single-output
// coders are supported.
func (r *Registry) Decode(id []byte, properties []byte, inputs [][]byte, outputSizes []uint64) ([][]byte, error) {
	method, ok := r.Lookup(ID(id))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ID(id))
	}
	if len(inputs) != 1 || len(outputSizes) != 1 {
		return nil, fmt.Errorf("%w: %s with %d inputs and %d outputs", ErrUnsupported, method.Name, len(inputs), len(outputSizes))
	}

	output, err := method.Decode(&r.options, properties, inputs[0], outputSizes[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method.Name, err)
	}
	if uint64(len(output)) != outputSizes[0] {
		return nil, fmt.Errorf("%s: produced %d bytes, expected %d", method.Name, len(output), outputSizes[0])
	}
	return [][]byte{output}, nil
}

// Encode runs the encoder of the method identified by id.
func (r *Registry) Encode(id []byte, input []byte) (properties []byte, output []byte, err error) {
	method, ok := r.Lookup(ID(id))
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupported, ID(id))
	}
	if method.Encode == nil {
		return nil, nil, fmt.Errorf("%w: %s is decode-only", ErrUnsupported, method.Name)
	}
	properties, output, err = method.Encode(&r.options, input)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", method.Name, err)
	}
	return properties, output, nil
}

// readExactly reads exactly size bytes from reader. The buffer grows
// as data arrives instead of trusting size for one large allocation,
// so a corrupt unpack size fails on short input rather than on memory.
func readExactly(reader io.Reader, size uint64) ([]byte, error) {
	if size > math.MaxInt64 {
		return nil, fmt.Errorf("output size %d exceeds addressable memory", size)
	}
	initial := size
	if initial > 1<<20 {
		initial = 1 << 20
	}
	buffer := bytes.NewBuffer(make([]byte, 0, initial))
	copied, err := io.CopyN(buffer, reader, int64(size))
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("stream ended after %d of %d bytes: %w", copied, size, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	return buffer.Bytes(), nil
}
