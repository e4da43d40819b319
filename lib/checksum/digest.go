// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names a content digest.
type Algorithm string

const (
	// CRC32 is the IEEE CRC-32 that 7z stores for every stream.
	CRC32 Algorithm = "crc32"

	// SHA256 is SHA-256, matching 7-Zip's "-scrcSHA256" output.
	SHA256 Algorithm = "sha256"

	// BLAKE2b is unkeyed BLAKE2b-256.
	BLAKE2b Algorithm = "blake2b"

	// BLAKE3 is unkeyed BLAKE3 with 32-byte output.
	BLAKE3 Algorithm = "blake3"
)

// Algorithms lists every supported algorithm in display order.
var Algorithms = []Algorithm{CRC32, SHA256, BLAKE2b, BLAKE3}

// ParseAlgorithm parses an algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, algorithm := range Algorithms {
		if string(algorithm) == name {
			return algorithm, nil
		}
	}
	return "", fmt.Errorf("unknown digest algorithm: %q", name)
}

// New returns a fresh hash for algorithm.
func New(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case CRC32:
		return NewCRC32(), nil
	case SHA256:
		return sha256.New(), nil
	case BLAKE2b:
		// New256 only fails for keys longer than 64 bytes.
		return blake2b.New256(nil)
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("unknown digest algorithm: %q", algorithm)
	}
}

// Digest hashes data with algorithm and returns the hex digest.
func Digest(algorithm Algorithm, data []byte) (string, error) {
	hasher, err := New(algorithm)
	if err != nil {
		return "", err
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
