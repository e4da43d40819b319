// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/checksum"
	"github.com/bureau-foundation/sevenzip/lib/method"
)

// FormatError reports bytes that do not form a valid 7z structure: an
// unexpected property id, a truncated or inconsistent record, or a
// folder graph that violates its invariants. It is always fatal to the
// parse that produced it.
type FormatError struct {
	// Section names the record being parsed or validated
	// ("pack info", "folder 2").
	Section string

	// Err describes the violation.
	Err error
}

func (err *FormatError) Error() string {
	return fmt.Sprintf("7z format error in %s: %v", err.Section, err.Err)
}

func (err *FormatError) Unwrap() error {
	return err.Err
}

// IntegrityError reports a stored CRC-32 that does not match the data
// it covers. Callers may abort the archive or skip only the affected
// folder; the codec never repairs or drops data on its own.
type IntegrityError struct {
	// Subject names the checked range ("next header", "folder 0",
	// "substream 3 of folder 1", "pack stream 2").
	Subject string

	Expected uint32
	Actual   uint32
}

func (err *IntegrityError) Error() string {
	return fmt.Sprintf("7z integrity error: %s crc32 is %s, header says %s",
		err.Subject, checksum.FormatDigest(err.Actual), checksum.FormatDigest(err.Expected))
}

// CodecError reports a coder that could not be run: an unknown method,
// a missing password, or corrupt packed data. It is fatal for the
// folder that owns the coder and says nothing about sibling folders.
type CodecError struct {
	// Coder is the index of the failing coder within its folder.
	Coder int

	// Method is the coder's method id.
	Method method.ID

	Err error
}

func (err *CodecError) Error() string {
	return fmt.Sprintf("7z codec error in coder %d (method %s): %v", err.Coder, err.Method, err.Err)
}

func (err *CodecError) Unwrap() error {
	return err.Err
}

// UnsupportedFeatureError reports a valid but unimplemented format
// feature (external folder references, additional streams, alternative
// coder methods, external file properties). It is raised instead of
// skipping the feature so that data is never silently lost.
type UnsupportedFeatureError struct {
	Feature string
}

func (err *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("7z feature not supported: %s", err.Feature)
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var formatError *FormatError
	return errors.As(err, &formatError)
}

// IsIntegrityError reports whether err is or wraps an *IntegrityError.
func IsIntegrityError(err error) bool {
	var integrityError *IntegrityError
	return errors.As(err, &integrityError)
}

// IsCodecError reports whether err is or wraps a *CodecError.
func IsCodecError(err error) bool {
	var codecError *CodecError
	return errors.As(err, &codecError)
}

// IsUnsupported reports whether err is or wraps an
// *UnsupportedFeatureError.
func IsUnsupported(err error) bool {
	var unsupported *UnsupportedFeatureError
	return errors.As(err, &unsupported)
}

// formatErrorf builds a *FormatError for section.
func formatErrorf(section, format string, args ...any) error {
	return &FormatError{Section: section, Err: fmt.Errorf(format, args...)}
}

// inSection attributes err to section. Errors that already carry one of
// this package's types keep their type and gain the section as
// context; anything else (truncation from the wire reader) becomes a
// *FormatError.
func inSection(section string, err error) error {
	if err == nil {
		return nil
	}
	if IsFormatError(err) || IsUnsupported(err) || IsIntegrityError(err) || IsCodecError(err) {
		return fmt.Errorf("%s: %w", section, err)
	}
	return &FormatError{Section: section, Err: err}
}

// unsupported builds an *UnsupportedFeatureError.
func unsupported(feature string) error {
	return &UnsupportedFeatureError{Feature: feature}
}

// verifyCRC returns an *IntegrityError when data does not hash to
// expected.
func verifyCRC(subject string, data []byte, expected uint32) error {
	var mismatch *checksum.MismatchError
	if err := checksum.Verify(data, expected); errors.As(err, &mismatch) {
		return &IntegrityError{Subject: subject, Expected: mismatch.Expected, Actual: mismatch.Actual}
	}
	return nil
}
