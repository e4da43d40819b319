// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/sevenzip/cmd/sevenzip/cli"
	"github.com/bureau-foundation/sevenzip/lib/checksum"
	"github.com/bureau-foundation/sevenzip/lib/version"
)

// root builds the complete command tree.
func root() *cli.Command {
	return &cli.Command{
		Name: "sevenzip",
		Description: `sevenzip: inspect, verify and create 7z archives.

Reads and writes the 7z container format: signature header, packed
streams, folders of chained coders, and the (optionally compressed)
header that describes them. Supported coders are copy, delta, BCJ,
LZMA, LZMA2, Deflate, BZip2 (decode only), Zstandard, LZ4 and 7zAES.

Settings are read from the YAML or JSONC file named by
$SEVENZIP_CONFIG, or by --config on any command.`,
		Subcommands: []*cli.Command{
			infoCommand(),
			listCommand(),
			dumpCommand(),
			testCommand(),
			hashCommand(),
			createCommand(),
			versionCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Summarize an archive",
				Command:     "sevenzip info backup.7z",
			},
			{
				Description: "Check every stored CRC",
				Command:     "sevenzip test backup.7z",
			},
			{
				Description: "Create a solid archive",
				Command:     "sevenzip create --solid backup.7z ./project",
			},
		},
	}
}

type versionParams struct {
	Short bool `json:"short" flag:"short" desc:"print only the version number"`
	Full  bool `json:"full"  flag:"full"  desc:"also print the commit, the binary path and its BLAKE3 digest"`
}

func versionCommand() *cli.Command {
	var params versionParams

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "sevenzip version [--short | --full]",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 0 {
				return fmt.Errorf("version takes no arguments, got %d", len(args))
			}
			return runVersion(os.Stdout, &params)
		},
	}
}

func runVersion(w io.Writer, params *versionParams) error {
	if params.Short && params.Full {
		return fmt.Errorf("--short and --full are mutually exclusive")
	}
	if params.Short {
		_, err := fmt.Fprintln(w, version.Short())
		return err
	}
	if _, err := fmt.Fprintf(w, "sevenzip %s\n", version.Full()); err != nil {
		return err
	}
	if !params.Full {
		return nil
	}
	digest, binaryPath, err := version.SelfDigest(checksum.BLAKE3)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "commit: %s\nbinary: %s\nblake3: %s\n", version.Commit(), binaryPath, digest)
	return err
}
