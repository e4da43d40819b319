// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/bureau-foundation/sevenzip/cmd/sevenzip/cli"
	"github.com/bureau-foundation/sevenzip/lib/checksum"
)

type infoParams struct {
	sessionParams
	cli.JSONOutput
}

func infoCommand() *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "Summarize an archive",
		Description: `Print an archive's format version, header layout, folder and file
counts, sizes, and the coder chains in use. Nothing is decompressed
beyond an encoded header.`,
		Usage:  "sevenzip info [flags] <archive>",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("info takes exactly one archive path, got %d arguments", len(args))
			}
			return runInfo(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), args[0], &params)
		},
	}
}

// archiveSummary is the result of "sevenzip info".
type archiveSummary struct {
	Path           string   `json:"path"`
	Version        string   `json:"version"`
	EncodedHeader  bool     `json:"encoded_header"`
	HeaderOffset   uint64   `json:"header_offset"`
	HeaderSize     uint64   `json:"header_size"`
	HeaderCRC      string   `json:"header_crc"`
	Folders        int      `json:"folders"`
	Files          int      `json:"files"`
	Directories    int      `json:"directories"`
	PackedSize     uint64   `json:"packed_size"`
	UnpackedSize   uint64   `json:"unpacked_size"`
	Methods        []string `json:"methods"`
	Solid          bool     `json:"solid"`
	Encrypted      bool     `json:"encrypted"`
	HasAntiEntries bool     `json:"has_anti_entries,omitempty"`
}

func summarize(a *archive) archiveSummary {
	signature := a.reader.Signature()
	streams := a.reader.Header().MainStreams
	summary := archiveSummary{
		Path:          a.path,
		Version:       signature.Version.String(),
		EncodedHeader: a.reader.HeaderEncoded(),
		HeaderOffset:  signature.NextHeaderOffset,
		HeaderSize:    signature.NextHeaderSize,
		HeaderCRC:     checksum.FormatDigest(signature.NextHeaderCRC),
		Folders:       a.reader.NumFolders(),
		Methods:       []string{},
		Encrypted:     a.encrypted(),
	}
	if streams != nil && streams.PackInfo != nil {
		summary.PackedSize = streams.PackInfo.TotalSize()
	}
	folders := streams.Folders()
	for i := range folders {
		summary.UnpackedSize += folders[i].UnpackSize()
		if chain := methodChain(&folders[i], a.registry); !slices.Contains(summary.Methods, chain) {
			summary.Methods = append(summary.Methods, chain)
		}
	}
	if streams != nil {
		info := streams.Substreams()
		summary.Solid = slices.ContainsFunc(info.NumUnpackStreams, func(n int) bool { return n > 1 })
	}
	for _, file := range a.reader.Header().Files() {
		switch {
		case file.IsAnti:
			summary.HasAntiEntries = true
		case file.IsDir():
			summary.Directories++
		default:
			summary.Files++
		}
	}
	return summary
}

func runInfo(w io.Writer, styled bool, path string, params *infoParams) error {
	s, err := newSession(&params.sessionParams, "info")
	if err != nil {
		return err
	}
	a, err := s.open(path)
	if err != nil {
		return err
	}
	defer a.Close()

	summary := summarize(a)
	if done, err := params.EmitJSON(summary); done {
		return err
	}
	return writeSummary(w, styled, summary)
}

func writeSummary(w io.Writer, styled bool, summary archiveSummary) error {
	label := func(text string) string { return text }
	if styled {
		style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
		label = func(text string) string { return style.Render(text) }
	}

	header := "plain"
	if summary.EncodedHeader {
		header = "encoded"
	}
	methods := strings.Join(summary.Methods, ", ")
	if methods == "" {
		methods = "-"
	}

	rows := [][2]string{
		{"Archive", summary.Path},
		{"Version", summary.Version},
		{"Header", fmt.Sprintf("%s, %d bytes at offset %d, crc32 %s", header, summary.HeaderSize, summary.HeaderOffset, summary.HeaderCRC)},
		{"Folders", fmt.Sprintf("%d", summary.Folders)},
		{"Files", fmt.Sprintf("%d", summary.Files)},
		{"Directories", fmt.Sprintf("%d", summary.Directories)},
		{"Packed size", formatSize(summary.PackedSize)},
		{"Unpacked size", formatSize(summary.UnpackedSize)},
		{"Methods", methods},
		{"Solid", yesNo(summary.Solid)},
		{"Encrypted", yesNo(summary.Encrypted)},
	}
	if summary.HasAntiEntries {
		rows = append(rows, [2]string{"Anti items", "yes"})
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}
	for _, row := range rows {
		padding := strings.Repeat(" ", width-len(row[0]))
		if _, err := fmt.Fprintf(w, "%s:%s %s\n", label(row[0]), padding, row[1]); err != nil {
			return err
		}
	}
	return nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// formatSize renders a byte count with a binary unit suffix.
func formatSize(size uint64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	divisor, exponent := uint64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		divisor *= unit
		exponent++
	}
	return fmt.Sprintf("%.1f %ciB (%d bytes)", float64(size)/float64(divisor), "KMGTPE"[exponent], size)
}
