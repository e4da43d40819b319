// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for the archive
// packages and the command-line tool.
//
// [Hex] decodes byte fixtures written as grouped hex strings, the form
// in which header records are quoted throughout the tests.
//
// [WriteFile] places fixture data in a per-test temporary directory
// for code that takes file paths.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that concurrent
// tests do not need direct time.After calls and a stuck goroutine
// fails the test instead of hanging it.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies inside this module.
package testutil
