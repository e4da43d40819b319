// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/sevenzip/lib/checksum"
)

// SelfDigest returns the hex digest and absolute filesystem path of the
// currently running binary. Uses os.Executable(), which on Linux reads
// /proc/self/exe and so names the original binary even if it has been
// replaced on disk since the process started.
func SelfDigest(algorithm checksum.Algorithm) (digest string, binaryPath string, err error) {
	executable, err := os.Executable()
	if err != nil {
		return "", "", fmt.Errorf("resolving own executable path: %w", err)
	}
	digest, err = fileDigest(algorithm, executable)
	if err != nil {
		return "", "", fmt.Errorf("hashing own binary at %s: %w", executable, err)
	}
	return digest, executable, nil
}

func fileDigest(algorithm checksum.Algorithm, path string) (string, error) {
	hasher, err := checksum.New(algorithm)
	if err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
