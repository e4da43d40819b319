// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework of the sevenzip tool.
//
// A [Command] tree dispatches on the first positional argument,
// suggests the closest subcommand or flag on typos (Levenshtein
// distance at most 3), and binds flags from tagged parameter structs
// via [BindFlags] on top of github.com/spf13/pflag.
//
// Output helpers render the same report values as YAML, JSON or CBOR
// ([Write]); [JSONOutput] adds a --json flag to table-style commands.
// [NewCommandLogger] picks a text or JSON slog handler depending on
// whether stderr is a terminal. [ExitError] lets a command choose its
// exit status after printing its own output.
package cli
