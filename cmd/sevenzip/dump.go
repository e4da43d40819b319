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
)

type dumpParams struct {
	sessionParams
	Format string `json:"format" flag:"format,f" desc:"output format: yaml, json, cbor or cbor-diag" default:"yaml"`
}

func dumpCommand() *cli.Command {
	var params dumpParams

	return &cli.Command{
		Name:    "dump",
		Summary: "Print the parsed archive header",
		Description: `Parse an archive's header and print every record: the signature
header, pack streams, folders with their coders and bind pairs,
substream sizes and digests, and the file list.

YAML is meant for reading. JSON and CBOR carry the same fields for
scripts; CBOR uses deterministic encoding, so dumping the same archive
twice produces identical bytes. cbor-diag prints that CBOR in RFC 8949
diagnostic notation.`,
		Usage:  "sevenzip dump [flags] <archive>",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Show the header as YAML",
				Command:     "sevenzip dump backup.7z",
			},
			{
				Description: "Extract coder chains with jq",
				Command:     "sevenzip dump --format json backup.7z | jq '.folders[].coders[].method'",
			},
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("dump takes exactly one archive path, got %d arguments", len(args))
			}
			return runDump(os.Stdout, args[0], &params)
		},
	}
}

func runDump(w io.Writer, path string, params *dumpParams) error {
	format, err := cli.ParseFormat(params.Format)
	if err != nil {
		return err
	}
	s, err := newSession(&params.sessionParams, "dump")
	if err != nil {
		return err
	}
	a, err := s.open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	return cli.Write(w, format, newHeaderReport(a.reader, a.registry))
}
