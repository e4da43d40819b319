// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the sevenzip
// tool.
//
// Configuration is loaded from a single file specified by either the
// SEVENZIP_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no ~/.config discovery and no automatic
// file search. Files ending in .jsonc or .json are accepted as JSON
// with comments (github.com/tidwall/jsonc) and decoded with the same
// YAML field names.
//
// A profile (store, fast, normal, ultra, or one defined under
// profiles:) overrides the base compression settings when selected.
//
// Variable expansion is performed on password_file after loading:
// ${VAR} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values.
//
// Key exports:
//
//   - [Config] -- compression chain, header storage, limits, logging
//   - [Default] -- LZMA2 data with an LZMA-encoded header
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other packages of this module.
package config
