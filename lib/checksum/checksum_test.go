// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checksum

import (
	"errors"
	"testing"
)

func TestSumKnownValue(t *testing.T) {
	// CRC-32/ISO-HDLC check value.
	if got := Sum([]byte("123456789")); got != 0xcbf43926 {
		t.Errorf("Sum(123456789) = %#x, want 0xcbf43926", got)
	}
	if got := Sum([]byte("abcd")); got != 0xed82cd11 {
		t.Errorf("Sum(abcd) = %#x, want 0xed82cd11", got)
	}
}

func TestVerify(t *testing.T) {
	if err := Verify([]byte("abcd"), 0xed82cd11); err != nil {
		t.Fatalf("Verify(match): %v", err)
	}

	err := Verify([]byte("abcd"), 1)
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Verify(mismatch) = %v, want *MismatchError", err)
	}
	if mismatch.Expected != 1 || mismatch.Actual != 0xed82cd11 {
		t.Errorf("mismatch = %+v", mismatch)
	}
}

func TestFormatDigest(t *testing.T) {
	if text := FormatDigest(0x0bfe4b8b); text != "0bfe4b8b" {
		t.Errorf("FormatDigest = %q, want 0bfe4b8b", text)
	}
	if text := FormatDigest(0); text != "00000000" {
		t.Errorf("FormatDigest(0) = %q, want 00000000", text)
	}
}

func TestNewCRC32Streams(t *testing.T) {
	content := []byte("seven zip seven zip")
	hasher := NewCRC32()
	hasher.Write(content[:7])
	hasher.Write(content[7:])
	if got := hasher.Sum32(); got != Sum(content) {
		t.Errorf("streamed crc32 = %#x, want %#x", got, Sum(content))
	}
}

func TestDigestAlgorithms(t *testing.T) {
	sizes := map[Algorithm]int{CRC32: 8, SHA256: 64, BLAKE2b: 64, BLAKE3: 64}
	for _, algorithm := range Algorithms {
		digest, err := Digest(algorithm, []byte("content"))
		if err != nil {
			t.Fatalf("Digest(%s): %v", algorithm, err)
		}
		if len(digest) != sizes[algorithm] {
			t.Errorf("Digest(%s) length = %d, want %d", algorithm, len(digest), sizes[algorithm])
		}
	}

	crc, _ := Digest(CRC32, []byte("abcd"))
	if crc != "ed82cd11" {
		t.Errorf("Digest(crc32, abcd) = %s, want ed82cd11", crc)
	}

	if _, err := ParseAlgorithm("md5"); err == nil {
		t.Error("ParseAlgorithm(md5) should fail")
	}
}
