// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package method

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// 7zAES: AES-256-CBC. The key is SHA-256 over 2^cycles repetitions of
// salt || UTF-16LE(password) || 64-bit little-endian round counter.
//
// Property layout:
//
//	byte 0: bit 7 salt present, bit 6 iv present, bits 0-5 cycles power
//	byte 1: high nibble salt size - 1, low nibble iv size - 1
//	salt, then iv (zero-padded to 16 bytes)

const (
	// aesCyclesPower is the key-stretching exponent used when
	// encoding, matching 7-Zip's default.
	aesCyclesPower = 19

	// aesMaxCyclesPower bounds stretching on decode. 0x3f is the
	// special "no hashing" value and is handled separately.
	aesMaxCyclesPower = 24

	aesNoHashCycles = 0x3f
)

type aesParameters struct {
	cyclesPower byte
	salt        []byte
	iv          [aes.BlockSize]byte
}

func parseAESProperties(properties []byte) (aesParameters, error) {
	var parameters aesParameters
	if len(properties) == 0 {
		return parameters, fmt.Errorf("aes: missing properties")
	}
	first := properties[0]
	parameters.cyclesPower = first & 0x3f
	if parameters.cyclesPower > aesMaxCyclesPower && parameters.cyclesPower != aesNoHashCycles {
		return parameters, fmt.Errorf("aes: key cycles power %d exceeds %d", parameters.cyclesPower, aesMaxCyclesPower)
	}
	if first&0xc0 == 0 {
		if len(properties) != 1 {
			return parameters, fmt.Errorf("aes: %d trailing property bytes", len(properties)-1)
		}
		return parameters, nil
	}
	if len(properties) < 2 {
		return parameters, fmt.Errorf("aes: properties truncated")
	}
	second := properties[1]
	saltSize := int(first>>7&1) + int(second>>4)
	ivSize := int(first>>6&1) + int(second&0x0f)
	if len(properties) != 2+saltSize+ivSize {
		return parameters, fmt.Errorf("aes: properties are %d bytes, want %d", len(properties), 2+saltSize+ivSize)
	}
	parameters.salt = properties[2 : 2+saltSize]
	copy(parameters.iv[:], properties[2+saltSize:])
	return parameters, nil
}

func deriveAESKey(password string, parameters aesParameters) ([]byte, error) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(password))
	if err != nil {
		return nil, fmt.Errorf("aes: encoding password: %w", err)
	}

	if parameters.cyclesPower == aesNoHashCycles {
		key := make([]byte, 32)
		copied := copy(key, parameters.salt)
		copy(key[copied:], encoded)
		return key, nil
	}

	hasher := sha256.New()
	var counter [8]byte
	rounds := uint64(1) << parameters.cyclesPower
	for round := uint64(0); round < rounds; round++ {
		hasher.Write(parameters.salt)
		hasher.Write(encoded)
		binary.LittleEndian.PutUint64(counter[:], round)
		hasher.Write(counter[:])
	}
	return hasher.Sum(nil), nil
}

func decodeAES(options *Options, properties []byte, input []byte, outputSize uint64) ([]byte, error) {
	if options.Password == "" {
		return nil, fmt.Errorf("aes: %w", ErrPasswordRequired)
	}
	parameters, err := parseAESProperties(properties)
	if err != nil {
		return nil, err
	}
	if len(input)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("aes: ciphertext is %d bytes, not a multiple of %d", len(input), aes.BlockSize)
	}
	if uint64(len(input)) < outputSize {
		return nil, fmt.Errorf("aes: %w", errShortInput(len(input), outputSize))
	}

	key, err := deriveAESKey(options.Password, parameters)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	output := make([]byte, len(input))
	cipher.NewCBCDecrypter(block, parameters.iv[:]).CryptBlocks(output, input)
	return output[:outputSize], nil
}

func encodeAES(options *Options, input []byte) ([]byte, []byte, error) {
	if options.Password == "" {
		return nil, nil, fmt.Errorf("aes: %w", ErrPasswordRequired)
	}

	parameters := aesParameters{cyclesPower: aesCyclesPower}
	if _, err := rand.Read(parameters.iv[:]); err != nil {
		return nil, nil, fmt.Errorf("aes: generating iv: %w", err)
	}
	key, err := deriveAESKey(options.Password, parameters)
	if err != nil {
		return nil, nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("aes: %w", err)
	}

	padded := make([]byte, (len(input)+aes.BlockSize-1)/aes.BlockSize*aes.BlockSize)
	copy(padded, input)
	cipher.NewCBCEncrypter(block, parameters.iv[:]).CryptBlocks(padded, padded)

	properties := make([]byte, 0, 2+aes.BlockSize)
	properties = append(properties, 0x40|aesCyclesPower, aes.BlockSize-1)
	properties = append(properties, parameters.iv[:]...)
	return properties, padded, nil
}
